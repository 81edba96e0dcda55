// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"time"

	"github.com/absmach/workertraces/worker"
	"github.com/go-kit/kit/metrics"
)

var _ worker.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     worker.Service
}

// MetricsMiddleware instruments the worker service by tracking request count
// and latency.
func MetricsMiddleware(svc worker.Service, counter metrics.Counter, latency metrics.Histogram) worker.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Dispatch(ctx context.Context, conn worker.Conn, req worker.Request) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "dispatch").Add(1)
		mm.latency.With("method", "dispatch").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Dispatch(ctx, conn, req)
}

func (mm *metricsMiddleware) Deliver(ctx context.Context, res worker.Response) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "deliver").Add(1)
		mm.latency.With("method", "deliver").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Deliver(ctx, res)
}

func (mm *metricsMiddleware) Disconnect(ctx context.Context, conn worker.Conn) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "disconnect").Add(1)
		mm.latency.With("method", "disconnect").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Disconnect(ctx, conn)
}
