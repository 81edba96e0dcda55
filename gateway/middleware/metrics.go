// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"time"

	"github.com/absmach/workertraces/gateway"
	"github.com/go-kit/kit/metrics"
)

var _ gateway.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     gateway.Service
}

// MetricsMiddleware instruments the gateway service by tracking request
// count and latency.
func MetricsMiddleware(svc gateway.Service, counter metrics.Counter, latency metrics.Histogram) gateway.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Forward(ctx context.Context, id, uri string) ([]byte, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "forward").Add(1)
		mm.latency.With("method", "forward").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Forward(ctx, id, uri)
}
