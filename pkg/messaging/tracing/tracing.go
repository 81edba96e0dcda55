// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"
	"fmt"

	"github.com/absmach/workertraces/pkg/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingPolicy decides whether bus hops create spans and carry trace context.
type TracingPolicy uint8

const (
	// PolicyPropagate traces a hop only when a trace is already in progress.
	PolicyPropagate TracingPolicy = iota
	// PolicyIgnore never traces.
	PolicyIgnore
	// PolicyAlways traces every hop, starting a new trace when needed.
	PolicyAlways
)

const (
	publishOP = "publish"
	processOP = "process"
)

var policies = map[TracingPolicy]string{
	PolicyPropagate: "propagate",
	PolicyIgnore:    "ignore",
	PolicyAlways:    "always",
}

func (p TracingPolicy) String() string {
	return policies[p]
}

// ParsePolicy returns the policy named s.
func ParsePolicy(s string) (TracingPolicy, error) {
	for p, name := range policies {
		if name == s {
			return p, nil
		}
	}

	return PolicyPropagate, fmt.Errorf("unknown tracing policy %q", s)
}

var defaultAttributes = []attribute.KeyValue{
	attribute.String("messaging.system", "workertraces"),
	attribute.Bool("messaging.destination.anonymous", false),
}

// traced reports whether a hop carrying sc must be traced under p.
func (p TracingPolicy) traced(sc trace.SpanContext) bool {
	switch p {
	case PolicyIgnore:
		return false
	case PolicyAlways:
		return true
	default:
		return sc.IsValid()
	}
}

func createSpan(ctx context.Context, operation, topic string, msg *messaging.Message, spanKind trace.SpanKind, tracer trace.Tracer) (context.Context, trace.Span) {
	kvOpts := []attribute.KeyValue{
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination.name", topic),
	}
	if msg.ID != "" {
		kvOpts = append(kvOpts, attribute.String("messaging.message.id", msg.ID))
	}
	if msg.Publisher != "" {
		kvOpts = append(kvOpts, attribute.String("messaging.client_id", msg.Publisher))
	}
	if size := len(msg.Payload); size > 0 {
		kvOpts = append(kvOpts, attribute.Int("messaging.message.payload_size_bytes", size))
	}
	kvOpts = append(kvOpts, defaultAttributes...)

	spanName := fmt.Sprintf("%s %s", topic, operation)

	return tracer.Start(ctx, spanName, trace.WithAttributes(kvOpts...), trace.WithSpanKind(spanKind))
}

func inject(ctx context.Context, msg *messaging.Message) {
	otel.GetTextMapPropagator().Inject(ctx, messaging.NewHeaderCarrier(msg))
}

func extract(ctx context.Context, msg *messaging.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, messaging.NewHeaderCarrier(msg))
}
