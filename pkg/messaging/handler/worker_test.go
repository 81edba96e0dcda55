// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package handler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	wtlog "github.com/absmach/workertraces/logger"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/messaging/handler"
	"github.com/absmach/workertraces/pkg/messaging/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type recorder struct {
	mu    sync.Mutex
	ids   []string
	ctxs  []context.Context
	block chan struct{}
	done  chan struct{}
}

func newRecorder(expected int) *recorder {
	return &recorder{done: make(chan struct{}, expected)}
}

func (r *recorder) Handle(ctx context.Context, msg *messaging.Message) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.ids = append(r.ids, msg.ID)
	r.ctxs = append(r.ctxs, ctx)
	r.mu.Unlock()
	r.done <- struct{}{}

	return nil
}

func (r *recorder) Cancel() error {
	return nil
}

func TestWorkerOrder(t *testing.T) {
	const n = 100
	rec := newRecorder(n)
	w := handler.NewWorker(rec, wtlog.NewMock(), 1, 0)

	var expected []string
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%03d", i)
		expected = append(expected, id)
		err := w.Handle(context.Background(), &messaging.Message{ID: id})
		require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	}
	for i := 0; i < n; i++ {
		<-rec.done
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, expected, rec.ids, "single worker must preserve delivery order")
}

func TestWorkerOffloads(t *testing.T) {
	rec := newRecorder(1)
	rec.block = make(chan struct{})
	w := handler.NewWorker(rec, wtlog.NewMock(), 1, 1)

	// Handle must return while the wrapped handler is still blocked.
	returned := make(chan error)
	go func() {
		returned <- w.Handle(context.Background(), &messaging.Message{ID: "1"})
	}()
	select {
	case err := <-returned:
		assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	case <-time.After(time.Second):
		t.Fatal("Handle blocked on the wrapped handler")
	}

	close(rec.block)
	<-rec.done
}

func TestWorkerPropagatesTraceContext(t *testing.T) {
	rec := newRecorder(1)
	w := handler.NewWorker(rec, wtlog.NewMock(), 2, 0)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx, cancel := context.WithCancel(trace.ContextWithSpanContext(context.Background(), sc))
	err := w.Handle(ctx, &messaging.Message{ID: "1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	cancel()
	<-rec.done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, sc, trace.SpanContextFromContext(rec.ctxs[0]))
	assert.Nil(t, rec.ctxs[0].Err(), "publisher cancellation must not reach the handler")
}

func TestWorkerCancel(t *testing.T) {
	errCancel := errors.New("cancel failed")

	cases := []struct {
		desc      string
		messages  int
		cancelErr error
	}{
		{
			desc:     "cancel drains queued messages",
			messages: 10,
		},
		{
			desc:      "cancel returns wrapped handler error",
			messages:  1,
			cancelErr: errCancel,
		},
	}

	for _, tc := range cases {
		h := new(mocks.MessageHandler)
		h.On("Handle", mock.Anything, mock.Anything).Return(nil)
		h.On("Cancel").Return(tc.cancelErr)

		w := handler.NewWorker(h, wtlog.NewMock(), 3, tc.messages)
		for i := 0; i < tc.messages; i++ {
			err := w.Handle(context.Background(), &messaging.Message{ID: fmt.Sprint(i)})
			require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		}

		err := w.Cancel()
		assert.Equal(t, tc.cancelErr, err, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.cancelErr, err))
		h.AssertNumberOfCalls(t, "Handle", tc.messages)
		h.AssertNumberOfCalls(t, "Cancel", 1)

		err = w.Handle(context.Background(), &messaging.Message{})
		assert.Equal(t, handler.ErrStopped, err, fmt.Sprintf("%s: expected %s got %s", tc.desc, handler.ErrStopped, err))

		err = w.Cancel()
		assert.Nil(t, err, fmt.Sprintf("%s: second cancel must be a no-op", tc.desc))
	}
}
