// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/absmach/workertraces/pkg/server/tcp"
	"github.com/absmach/workertraces/pkg/ulid"
	"github.com/absmach/workertraces/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var _ tcp.Handler = (*connHandler)(nil)

type connHandler struct {
	svc    worker.Service
	cfg    Config
	logger *slog.Logger
}

// NewConnHandler returns the handler for worker client connections. Each
// connection carries a stream of JSON encoded requests. Responses are
// written back under the limits of cfg.
func NewConnHandler(svc worker.Service, cfg Config, logger *slog.Logger) tcp.Handler {
	return &connHandler{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *connHandler) Handle(ctx context.Context, nc net.Conn) {
	id, err := ulid.New().ID()
	if err != nil {
		h.logger.Error("Failed to generate connection id", slog.Any("error", err))
		nc.Close()
		return
	}
	c := newConn(id, h.cfg, nc)
	h.logger.Debug("Client connected", slog.String("conn_id", id), slog.String("remote_addr", nc.RemoteAddr().String()))

	defer func() {
		// Disconnect must run even when the server context is already done.
		_ = h.svc.Disconnect(context.WithoutCancel(ctx), c)
		c.Close()
	}()

	dec := json.NewDecoder(nc)
	for {
		var req worker.Request
		if err := dec.Decode(&req); err != nil {
			h.readError(id, err)
			return
		}

		dispatch(ctx, h.svc, c, req)
	}
}

// dispatch hands req to svc in the trace context the request carries.
// Failures are logged by the service middleware.
func dispatch(ctx context.Context, svc worker.Service, c worker.Conn, req worker.Request) {
	if len(req.Trace) > 0 {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(req.Trace))
	}
	_ = svc.Dispatch(ctx, c, req)
}

func (h *connHandler) readError(id string, err error) {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		h.logger.Warn("Invalid request format", slog.String("conn_id", id), slog.Any("error", err))
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		h.logger.Debug("Client disconnected", slog.String("conn_id", id))
	default:
		h.logger.Warn("Failed to read request", slog.String("conn_id", id), slog.Any("error", err))
	}
}
