// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"strings"
	"time"

	"github.com/absmach/workertraces/pkg/errors"
	"github.com/absmach/workertraces/worker"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	errWrite = errors.New("failed to write request")
	errRead  = errors.New("failed to read response")
)

type service struct {
	cfg Config
}

var _ Service = (*service)(nil)

// NewService returns a gateway service connecting to the worker described
// by cfg. Zero durations fall back to the defaults.
func NewService(cfg Config) Service {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefConnectTimeout
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefReconnectInterval
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = DefResponseTimeout
	}

	return &service{cfg: cfg}
}

func (svc *service) Forward(ctx context.Context, id, uri string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}

	conn, err := svc.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrConnect, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(svc.cfg.ResponseTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	req := worker.Request{ID: id, Request: uri}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) > 0 {
		req.Trace = carrier
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, svc.ioError(errWrite, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	switch {
	case err == nil:
		return line, nil
	case err == io.EOF && len(line) > 0:
		return line, nil
	case err == io.EOF:
		return nil, ErrNoResponse
	default:
		return nil, svc.ioError(errRead, err)
	}
}

func (svc *service) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: svc.cfg.ConnectTimeout}

	var conn net.Conn
	op := func() error {
		c, err := dialer.DialContext(ctx, "tcp", svc.cfg.Address)
		if err != nil {
			return err
		}
		conn = c

		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(svc.cfg.ReconnectInterval), svc.cfg.ReconnectAttempts), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	return conn, nil
}

func (svc *service) ioError(wrapper, err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return ErrTimeout
	}

	return errors.Wrap(wrapper, err)
}
