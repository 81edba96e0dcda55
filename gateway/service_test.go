// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package gateway_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/absmach/workertraces/gateway"
	"github.com/absmach/workertraces/pkg/errors"
	"github.com/absmach/workertraces/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// workerFunc serves a single accepted connection of the fake worker.
type workerFunc func(conn net.Conn, req worker.Request)

// fakeWorker accepts connections, reads one request from each and hands it
// to fn. It returns the listen address and the received requests.
func fakeWorker(t *testing.T, fn workerFunc) (string, <-chan worker.Request) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	t.Cleanup(func() { listener.Close() })

	reqs := make(chan worker.Request, 10)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadBytes('\n')
				if err != nil {
					return
				}
				var req worker.Request
				if err := json.Unmarshal(line, &req); err != nil {
					return
				}
				reqs <- req
				fn(conn, req)
			}()
		}
	}()

	return listener.Addr().String(), reqs
}

// closedAddress returns an address nothing listens on.
func closedAddress(t *testing.T) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	addr := listener.Addr().String()
	listener.Close()

	return addr
}

func answer(conn net.Conn, req worker.Request) {
	data, _ := json.Marshal(worker.Response{ID: req.ID, Response: worker.DefGreeting})
	_, _ = conn.Write(append(data, '\n'))
}

func newService(addr string) gateway.Service {
	return gateway.NewService(gateway.Config{
		Address:           addr,
		ConnectTimeout:    time.Second,
		ReconnectAttempts: gateway.DefReconnectAttempts,
		ReconnectInterval: 10 * time.Millisecond,
		ResponseTimeout:   200 * time.Millisecond,
	})
}

func TestForward(t *testing.T) {
	answering, _ := fakeWorker(t, answer)
	silent, _ := fakeWorker(t, func(conn net.Conn, _ worker.Request) {
		time.Sleep(time.Second)
	})
	closing, _ := fakeWorker(t, func(net.Conn, worker.Request) {})
	partial, _ := fakeWorker(t, func(conn net.Conn, req worker.Request) {
		_, _ = conn.Write([]byte(`{"id":"` + req.ID + `"}`))
	})

	cases := []struct {
		desc string
		addr string
		id   string
		res  string
		err  error
	}{
		{
			desc: "forward request",
			addr: answering,
			id:   "1",
			res:  "{\"response\":\"Hello world!\",\"id\":\"1\"}\n",
		},
		{
			desc: "forward request without id",
			addr: answering,
			id:   "",
			err:  gateway.ErrMissingID,
		},
		{
			desc: "forward request with blank id",
			addr: answering,
			id:   "  ",
			err:  gateway.ErrMissingID,
		},
		{
			desc: "forward request to unreachable worker",
			addr: closedAddress(t),
			id:   "1",
			err:  gateway.ErrConnect,
		},
		{
			desc: "forward request to silent worker",
			addr: silent,
			id:   "1",
			err:  gateway.ErrTimeout,
		},
		{
			desc: "forward request to worker closing without response",
			addr: closing,
			id:   "1",
			err:  gateway.ErrNoResponse,
		},
		{
			desc: "forward request to worker closing after partial response",
			addr: partial,
			id:   "1",
			res:  `{"id":"1"}`,
		},
	}

	for _, tc := range cases {
		res, err := newService(tc.addr).Forward(context.Background(), tc.id, "/api?id="+tc.id)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
		assert.Equal(t, tc.res, string(res), tc.desc)
	}
}

func TestForwardRequest(t *testing.T) {
	addr, reqs := fakeWorker(t, answer)
	svc := newService(addr)

	_, err := svc.Forward(context.Background(), "1", "/api?id=1")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	req := <-reqs
	assert.Equal(t, worker.Request{ID: "1", Request: "/api?id=1"}, req, "request without active trace must not carry trace context")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("gateway").Start(context.Background(), "forward")
	defer span.End()

	_, err = svc.Forward(ctx, "2", "/api?id=2")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	req = <-reqs
	assert.Equal(t, "2", req.ID)
	expected := fmt.Sprintf("00-%s-%s-01", span.SpanContext().TraceID(), span.SpanContext().SpanID())
	assert.Equal(t, expected, req.Trace["traceparent"])
}

func TestForwardCanceled(t *testing.T) {
	addr, _ := fakeWorker(t, func(net.Conn, worker.Request) {
		time.Sleep(time.Second)
	})
	svc := gateway.NewService(gateway.Config{Address: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	begin := time.Now()
	_, err := svc.Forward(ctx, "1", "/api?id=1")
	assert.True(t, errors.Contains(err, gateway.ErrTimeout), fmt.Sprintf("expected %v got %v", gateway.ErrTimeout, err))
	assert.Less(t, time.Since(begin), time.Second, "canceled request must not wait for the response timeout")
}
