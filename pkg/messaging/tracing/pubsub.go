// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/workertraces/pkg/messaging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	subscribeOP   = "subscribe"
	unsubscribeOP = "unsubscribe"
)

var _ messaging.PubSub = (*pubsubMiddleware)(nil)

type pubsubMiddleware struct {
	publisherMiddleware
	pubsub messaging.PubSub
}

// NewPubSub creates a new pubsub middleware that traces pubsub operations
// and carries trace context from publishers to handlers.
func NewPubSub(tracer trace.Tracer, pubsub messaging.PubSub, policy TracingPolicy) messaging.PubSub {
	return &pubsubMiddleware{
		publisherMiddleware: publisherMiddleware{
			publisher: pubsub,
			tracer:    tracer,
			policy:    policy,
		},
		pubsub: pubsub,
	}
}

// Subscribe creates a new subscription and traces the operation.
func (pm *pubsubMiddleware) Subscribe(ctx context.Context, cfg messaging.SubscriberConfig) error {
	if trace.SpanContextFromContext(ctx).IsValid() {
		var span trace.Span
		ctx, span = pm.tracer.Start(ctx, cfg.Topic+" "+subscribeOP, trace.WithAttributes(
			attribute.String("messaging.destination.name", cfg.Topic),
			attribute.String("messaging.consumer.id", cfg.ID),
		))
		defer span.End()
	}

	cfg.Handler = NewHandler(pm.tracer, cfg.Topic, pm.policy, cfg.Handler)

	return pm.pubsub.Subscribe(ctx, cfg)
}

// Unsubscribe removes an existing subscription and traces the operation.
func (pm *pubsubMiddleware) Unsubscribe(ctx context.Context, id, topic string) error {
	if trace.SpanContextFromContext(ctx).IsValid() {
		var span trace.Span
		ctx, span = pm.tracer.Start(ctx, topic+" "+unsubscribeOP, trace.WithAttributes(
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.consumer.id", id),
		))
		defer span.End()
	}

	return pm.pubsub.Unsubscribe(ctx, id, topic)
}

var _ messaging.MessageHandler = (*traceHandler)(nil)

// traceHandler restores the publisher's trace context around message handling.
type traceHandler struct {
	handler messaging.MessageHandler
	tracer  trace.Tracer
	topic   string
	policy  TracingPolicy
}

// NewHandler wraps handler with a consumer span named "<topic> process" that
// is a child of the trace context carried in the message headers. The span
// ends when handler returns, so a handler that queues the message for later
// must wrap this one, not the other way round.
func NewHandler(tracer trace.Tracer, topic string, policy TracingPolicy, handler messaging.MessageHandler) messaging.MessageHandler {
	return &traceHandler{
		handler: handler,
		tracer:  tracer,
		topic:   topic,
		policy:  policy,
	}
}

// Handle instruments the message handling operation.
func (h *traceHandler) Handle(ctx context.Context, msg *messaging.Message) error {
	if h.policy == PolicyIgnore {
		return h.handler.Handle(ctx, msg)
	}

	ctx = extract(ctx, msg)
	if !h.policy.traced(trace.SpanContextFromContext(ctx)) {
		return h.handler.Handle(ctx, msg)
	}

	ctx, span := createSpan(ctx, processOP, h.topic, msg, trace.SpanKindConsumer, h.tracer)
	defer span.End()

	if err := h.handler.Handle(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Cancel cancels the message handling operation.
func (h *traceHandler) Cancel() error {
	return h.handler.Cancel()
}
