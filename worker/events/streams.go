// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"time"

	"github.com/absmach/workertraces/pkg/events"
	"github.com/absmach/workertraces/pkg/events/redis"
	"github.com/absmach/workertraces/worker"
)

const (
	streamID    = "workertraces.worker"
	flushPeriod = events.UnpublishedEventsCheckInterval
)

var _ worker.Service = (*eventStore)(nil)

type eventStore struct {
	events.Publisher
	svc worker.Service
}

// NewEventStoreMiddleware returns wrapper around worker service that sends
// events to event store.
func NewEventStoreMiddleware(ctx context.Context, svc worker.Service, url string) (worker.Service, error) {
	publisher, err := redis.NewPublisher(ctx, url, streamID, flushPeriod)
	if err != nil {
		return nil, err
	}

	return newEventStore(svc, publisher), nil
}

func newEventStore(svc worker.Service, publisher events.Publisher) *eventStore {
	return &eventStore{
		Publisher: publisher,
		svc:       svc,
	}
}

func (es *eventStore) Dispatch(ctx context.Context, conn worker.Conn, req worker.Request) error {
	if err := es.svc.Dispatch(ctx, conn, req); err != nil {
		return err
	}

	return es.Publish(ctx, dispatchEvent{
		connID:     conn.ID(),
		req:        req,
		occurredAt: time.Now(),
	})
}

func (es *eventStore) Deliver(ctx context.Context, res worker.Response) error {
	if err := es.svc.Deliver(ctx, res); err != nil {
		return err
	}

	return es.Publish(ctx, deliverEvent{
		res:        res,
		occurredAt: time.Now(),
	})
}

func (es *eventStore) Disconnect(ctx context.Context, conn worker.Conn) error {
	if err := es.svc.Disconnect(ctx, conn); err != nil {
		return err
	}

	return es.Publish(ctx, disconnectEvent{
		connID:     conn.ID(),
		occurredAt: time.Now(),
	})
}
