// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/workertraces/pkg/messaging"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ messaging.Publisher = (*publisherMiddleware)(nil)

type publisherMiddleware struct {
	publisher messaging.Publisher
	tracer    trace.Tracer
	policy    TracingPolicy
}

// NewPublisher creates a new messaging publisher tracing middleware.
func NewPublisher(tracer trace.Tracer, publisher messaging.Publisher, policy TracingPolicy) messaging.Publisher {
	return &publisherMiddleware{
		publisher: publisher,
		tracer:    tracer,
		policy:    policy,
	}
}

// Publish traces the publish operation and injects the trace context in the message headers.
func (pm *publisherMiddleware) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	if !pm.policy.traced(trace.SpanContextFromContext(ctx)) {
		return pm.publisher.Publish(ctx, topic, msg)
	}

	ctx, span := createSpan(ctx, publishOP, topic, msg, trace.SpanKindProducer, pm.tracer)
	defer span.End()

	out := msg.Clone()
	inject(ctx, out)

	if err := pm.publisher.Publish(ctx, topic, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Close closes the wrapped publisher.
func (pm *publisherMiddleware) Close() error {
	return pm.publisher.Close()
}
