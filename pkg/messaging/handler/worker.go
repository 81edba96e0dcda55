// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/absmach/workertraces/pkg/messaging"
)

const (
	defSize  = 1
	defQueue = 64
)

// ErrStopped is returned when a message is handed to a stopped worker.
var ErrStopped = errors.New("worker stopped")

var _ messaging.MessageHandler = (*worker)(nil)

type job struct {
	ctx context.Context
	msg *messaging.Message
}

type worker struct {
	handler messaging.MessageHandler
	logger  *slog.Logger
	jobs    chan job
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWorker wraps handler so that messages are handled on a pool of size
// goroutines instead of the goroutine that delivered them. Handle returns
// once the message is queued. With size 1 messages are handled in
// delivery order. Non-positive size and queue fall back to defaults.
func NewWorker(handler messaging.MessageHandler, logger *slog.Logger, size, queue int) messaging.MessageHandler {
	if size < 1 {
		size = defSize
	}
	if queue < 1 {
		queue = defQueue
	}

	w := &worker{
		handler: handler,
		logger:  logger,
		jobs:    make(chan job, queue),
	}

	w.wg.Add(size)
	for i := 0; i < size; i++ {
		go w.run()
	}

	return w
}

func (w *worker) run() {
	defer w.wg.Done()

	for j := range w.jobs {
		if err := w.handler.Handle(j.ctx, j.msg); err != nil {
			w.logger.Warn("Failed to handle message",
				slog.String("topic", j.msg.Topic),
				slog.String("id", j.msg.ID),
				slog.Any("error", err),
			)
		}
	}
}

// Handle queues the message. The trace context of ctx travels with it,
// cancellation does not.
func (w *worker) Handle(ctx context.Context, msg *messaging.Message) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrStopped
	}

	select {
	case w.jobs <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops accepting messages, waits for queued ones to be handled
// and cancels the wrapped handler.
func (w *worker) Cancel() error {
	var err error
	w.once.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.jobs)
		w.mu.Unlock()

		w.wg.Wait()
		err = w.handler.Cancel()
	})

	return err
}
