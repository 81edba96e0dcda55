// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"

	"github.com/absmach/workertraces/gateway"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const forwardOp = "forward"

var _ gateway.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    gateway.Service
}

// TracingMiddleware traces gateway service operations.
func TracingMiddleware(svc gateway.Service, tracer trace.Tracer) gateway.Service {
	return &tracingMiddleware{
		tracer: tracer,
		svc:    svc,
	}
}

func (tm *tracingMiddleware) Forward(ctx context.Context, id, uri string) ([]byte, error) {
	ctx, span := tm.tracer.Start(ctx, forwardOp, trace.WithAttributes(
		attribute.String("request_id", id),
		attribute.String("uri", uri),
	))
	defer span.End()

	res, err := tm.svc.Forward(ctx, id, uri)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return res, err
}
