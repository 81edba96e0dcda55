// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"encoding/json"

	"github.com/absmach/workertraces/pkg/errors"
	"github.com/absmach/workertraces/pkg/messaging"
)

const responderID = "responder"

var _ messaging.MessageHandler = (*responder)(nil)

type responder struct {
	publisher messaging.Publisher
	topic     string
	greeting  string
}

// NewResponder returns the request topic handler. It answers every request
// with greeting on the topic named by the request's ReplyToHeader, or on
// topic when the header is missing. An empty greeting falls back to
// DefGreeting.
func NewResponder(publisher messaging.Publisher, topic, greeting string) messaging.MessageHandler {
	if greeting == "" {
		greeting = DefGreeting
	}

	return &responder{
		publisher: publisher,
		topic:     topic,
		greeting:  greeting,
	}
}

func (r *responder) Handle(ctx context.Context, msg *messaging.Message) error {
	var req Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errors.Wrap(ErrMalformedRequest, err)
	}

	payload, err := json.Marshal(Response{ID: req.ID, Response: r.greeting})
	if err != nil {
		return err
	}

	topic := r.topic
	if replyTo := msg.Headers[ReplyToHeader]; replyTo != "" {
		topic = replyTo
	}

	return r.publisher.Publish(ctx, topic, &messaging.Message{
		Publisher: responderID,
		Payload:   payload,
	})
}

func (r *responder) Cancel() error {
	return nil
}

var _ messaging.MessageHandler = (*answerHandler)(nil)

type answerHandler struct {
	svc Service
}

// NewAnswerHandler returns the answer topic handler delivering responses
// through svc.
func NewAnswerHandler(svc Service) messaging.MessageHandler {
	return &answerHandler{svc: svc}
}

func (h *answerHandler) Handle(ctx context.Context, msg *messaging.Message) error {
	var res Response
	if err := json.Unmarshal(msg.Payload, &res); err != nil {
		return errors.Wrap(ErrMalformedResponse, err)
	}

	return h.svc.Deliver(ctx, res)
}

func (h *answerHandler) Cancel() error {
	return nil
}
