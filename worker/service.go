// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"encoding/json"

	"github.com/absmach/workertraces/pkg/errors"
	"github.com/absmach/workertraces/pkg/messaging"
)

var (
	errPublish = errors.New("failed to publish request")
	errWrite   = errors.New("failed to write response")
)

type service struct {
	registry  *Registry
	publisher messaging.Publisher
	topic     string
	replyTo   string
}

var _ Service = (*service)(nil)

// NewService returns a worker service that publishes requests to topic and
// asks for the responses on replyTo. An empty replyTo leaves the choice to
// the responder.
func NewService(registry *Registry, publisher messaging.Publisher, topic, replyTo string) Service {
	return &service{
		registry:  registry,
		publisher: publisher,
		topic:     topic,
		replyTo:   replyTo,
	}
}

func (svc *service) Dispatch(ctx context.Context, conn Conn, req Request) error {
	if req.ID == "" {
		return ErrMissingID
	}

	payload, err := json.Marshal(Request{ID: req.ID, Request: req.Request})
	if err != nil {
		return errors.Wrap(ErrMalformedRequest, err)
	}

	svc.registry.Register(req.ID, conn)

	msg := &messaging.Message{
		Publisher: conn.ID(),
		Payload:   payload,
	}
	if svc.replyTo != "" {
		msg.Headers = map[string]string{ReplyToHeader: svc.replyTo}
	}
	if err := svc.publisher.Publish(ctx, svc.topic, msg); err != nil {
		return errors.Wrap(errPublish, err)
	}

	return nil
}

func (svc *service) Deliver(ctx context.Context, res Response) error {
	if res.ID == "" {
		return ErrMissingID
	}

	conn, ok := svc.registry.Lookup(res.ID)
	if !ok {
		return ErrConnNotFound
	}

	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(ErrMalformedResponse, err)
	}
	if err := conn.Write(append(data, '\n')); err != nil {
		return errors.Wrap(errWrite, err)
	}

	return nil
}

func (svc *service) Disconnect(ctx context.Context, conn Conn) error {
	svc.registry.RemoveConn(conn)

	return nil
}
