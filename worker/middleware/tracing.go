// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"

	"github.com/absmach/workertraces/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dispatchOp   = "dispatch"
	deliverOp    = "deliver"
	disconnectOp = "disconnect"
)

var _ worker.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    worker.Service
}

// TracingMiddleware traces worker service operations.
func TracingMiddleware(svc worker.Service, tracer trace.Tracer) worker.Service {
	return &tracingMiddleware{
		tracer: tracer,
		svc:    svc,
	}
}

func (tm *tracingMiddleware) Dispatch(ctx context.Context, conn worker.Conn, req worker.Request) error {
	ctx, span := tm.tracer.Start(ctx, dispatchOp, trace.WithAttributes(
		attribute.String("conn_id", conn.ID()),
		attribute.String("request_id", req.ID),
		attribute.String("request", req.Request),
	))
	defer span.End()

	return record(span, tm.svc.Dispatch(ctx, conn, req))
}

func (tm *tracingMiddleware) Deliver(ctx context.Context, res worker.Response) error {
	ctx, span := tm.tracer.Start(ctx, deliverOp, trace.WithAttributes(
		attribute.String("request_id", res.ID),
	))
	defer span.End()

	return record(span, tm.svc.Deliver(ctx, res))
}

func (tm *tracingMiddleware) Disconnect(ctx context.Context, conn worker.Conn) error {
	ctx, span := tm.tracer.Start(ctx, disconnectOp, trace.WithAttributes(
		attribute.String("conn_id", conn.ID()),
	))
	defer span.End()

	return record(span, tm.svc.Disconnect(ctx, conn))
}

func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}
