// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/absmach/workertraces/logger"
	"github.com/absmach/workertraces/pkg/errors"
	"github.com/absmach/workertraces/worker"
	"github.com/absmach/workertraces/worker/middleware"
	"github.com/absmach/workertraces/worker/mocks"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var errFailed = errors.New("failed")

func newMocks() (*mocks.Service, *mocks.Conn) {
	svc := new(mocks.Service)
	conn := new(mocks.Conn)
	conn.On("ID").Return("conn")

	return svc, conn
}

func TestLoggingMiddleware(t *testing.T) {
	svc, conn := newMocks()
	req := worker.Request{ID: "1", Request: "/api?id=1"}
	svc.On("Dispatch", mock.Anything, conn, req).Return(nil)
	svc.On("Deliver", mock.Anything, worker.Response{ID: "1"}).Return(errFailed)
	svc.On("Disconnect", mock.Anything, conn).Return(nil)

	var buf bytes.Buffer
	log, err := logger.New(&buf, "info")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	lm := middleware.LoggingMiddleware(svc, log)

	cases := []struct {
		desc string
		call func() error
		err  error
		msg  string
	}{
		{
			desc: "log successful dispatch",
			call: func() error { return lm.Dispatch(context.Background(), conn, req) },
			msg:  "Dispatch request completed successfully",
		},
		{
			desc: "log failed deliver",
			call: func() error { return lm.Deliver(context.Background(), worker.Response{ID: "1"}) },
			err:  errFailed,
			msg:  "Deliver response failed",
		},
		{
			desc: "log successful disconnect",
			call: func() error { return lm.Disconnect(context.Background(), conn) },
			msg:  "Disconnect completed successfully",
		},
	}

	for _, tc := range cases {
		buf.Reset()
		err := tc.call()
		assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
		assert.Contains(t, buf.String(), tc.msg, tc.desc)
		assert.Contains(t, buf.String(), "duration", tc.desc)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	svc, conn := newMocks()
	req := worker.Request{ID: "1", Request: "/api?id=1"}
	svc.On("Dispatch", mock.Anything, conn, req).Return(nil)
	svc.On("Deliver", mock.Anything, worker.Response{ID: "1"}).Return(nil)
	svc.On("Disconnect", mock.Anything, conn).Return(nil)

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "request_count"}, []string{"method"})
	summaryVec := prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: "request_latency"}, []string{"method"})
	mm := middleware.MetricsMiddleware(svc, kitprometheus.NewCounter(counterVec), kitprometheus.NewSummary(summaryVec))

	ctx := context.Background()
	assert.Nil(t, mm.Dispatch(ctx, conn, req))
	assert.Nil(t, mm.Dispatch(ctx, conn, req))
	assert.Nil(t, mm.Deliver(ctx, worker.Response{ID: "1"}))
	assert.Nil(t, mm.Disconnect(ctx, conn))

	cases := map[string]float64{
		"dispatch":   2,
		"deliver":    1,
		"disconnect": 1,
	}
	for method, count := range cases {
		got := testutil.ToFloat64(counterVec.WithLabelValues(method))
		assert.Equal(t, count, got, fmt.Sprintf("%s: expected %v requests got %v", method, count, got))
	}
	assert.Equal(t, 3, testutil.CollectAndCount(summaryVec), "expected a latency series per method")
}

func TestTracingMiddleware(t *testing.T) {
	svc, conn := newMocks()
	req := worker.Request{ID: "1", Request: "/api?id=1"}
	svc.On("Dispatch", mock.Anything, conn, req).Return(nil)
	svc.On("Deliver", mock.Anything, worker.Response{ID: "1"}).Return(worker.ErrConnNotFound)
	svc.On("Disconnect", mock.Anything, conn).Return(nil)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tm := middleware.TracingMiddleware(svc, tp.Tracer("worker"))

	cases := []struct {
		desc   string
		call   func() error
		span   string
		status codes.Code
	}{
		{
			desc:   "trace dispatch",
			call:   func() error { return tm.Dispatch(context.Background(), conn, req) },
			span:   "dispatch",
			status: codes.Unset,
		},
		{
			desc:   "trace failed deliver",
			call:   func() error { return tm.Deliver(context.Background(), worker.Response{ID: "1"}) },
			span:   "deliver",
			status: codes.Error,
		},
		{
			desc:   "trace disconnect",
			call:   func() error { return tm.Disconnect(context.Background(), conn) },
			span:   "disconnect",
			status: codes.Unset,
		},
	}

	for _, tc := range cases {
		exporter.Reset()
		_ = tc.call()
		spans := exporter.GetSpans()
		require.Len(t, spans, 1, tc.desc)
		assert.Equal(t, tc.span, spans[0].Name, tc.desc)
		assert.Equal(t, tc.status, spans[0].Status.Code, tc.desc)
	}
}
