// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
	broker "github.com/nats-io/nats.go"
)

var _ messaging.PubSub = (*pubsub)(nil)

type subscription struct {
	*broker.Subscription
	cancel func() error
}

type pubsub struct {
	publisher
	logger        *slog.Logger
	mu            sync.Mutex
	closed        atomic.Bool
	subscriptions map[string]map[string]subscription
}

// NewPubSub returns NATS message publisher/subscriber.
// Subscribe uses NATS QueueSubscribe with the topic as the queue name,
// which is conceptually different from ordinary subscribe. For more
// information, please take a look here:
// https://docs.nats.io/developing-with-nats/receiving/queues.
func NewPubSub(ctx context.Context, url string, logger *slog.Logger, opts ...messaging.Option) (messaging.PubSub, error) {
	conn, err := broker.Connect(url, broker.MaxReconnects(maxReconnects))
	if err != nil {
		return nil, err
	}

	ret := &pubsub{
		publisher: publisher{
			conn:   conn,
			prefix: defPrefix,
			idp:    ulid.New(),
		},
		logger:        logger,
		subscriptions: make(map[string]map[string]subscription),
	}

	for _, opt := range opts {
		if err := opt(ret); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return ret, nil
}

func (ps *pubsub) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	if ps.closed.Load() {
		return messaging.ErrClosed
	}

	return ps.publisher.Publish(ctx, topic, msg)
}

func (ps *pubsub) Subscribe(ctx context.Context, cfg messaging.SubscriberConfig) error {
	if cfg.ID == "" {
		return messaging.ErrEmptyID
	}
	if cfg.Topic == "" {
		return messaging.ErrEmptyTopic
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed.Load() {
		return messaging.ErrClosed
	}

	s, ok := ps.subscriptions[cfg.Topic]
	if ok {
		if _, ok := s[cfg.ID]; ok {
			return messaging.ErrAlreadySubscribed
		}
	} else {
		s = make(map[string]subscription)
		ps.subscriptions[cfg.Topic] = s
	}

	sub, err := ps.conn.QueueSubscribe(ps.subject(cfg.Topic), cfg.Topic, ps.natsHandler(cfg.Handler))
	if err != nil {
		if len(s) == 0 {
			delete(ps.subscriptions, cfg.Topic)
		}
		return err
	}
	// Make sure the server registered interest before returning.
	if err := ps.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		if len(s) == 0 {
			delete(ps.subscriptions, cfg.Topic)
		}
		return err
	}
	s[cfg.ID] = subscription{
		Subscription: sub,
		cancel:       cfg.Handler.Cancel,
	}

	return nil
}

func (ps *pubsub) Unsubscribe(ctx context.Context, id, topic string) error {
	if id == "" {
		return messaging.ErrEmptyID
	}
	if topic == "" {
		return messaging.ErrEmptyTopic
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	s, ok := ps.subscriptions[topic]
	if !ok {
		return messaging.ErrNotSubscribed
	}
	current, ok := s[id]
	if !ok {
		return messaging.ErrNotSubscribed
	}
	if err := current.close(); err != nil {
		return err
	}

	delete(s, id)
	if len(s) == 0 {
		delete(ps.subscriptions, topic)
	}

	return nil
}

func (ps *pubsub) Close() error {
	if !ps.closed.CompareAndSwap(false, true) {
		return nil
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	var errs []error
	for _, s := range ps.subscriptions {
		for _, sub := range s {
			if err := sub.close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	ps.subscriptions = make(map[string]map[string]subscription)
	ps.conn.Close()

	return errors.Join(errs...)
}

func (ps *pubsub) natsHandler(h messaging.MessageHandler) broker.MsgHandler {
	return func(m *broker.Msg) {
		msg, err := messaging.Decode(m.Data)
		if err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to unmarshal received message: %s", err))
			return
		}

		if err := h.Handle(context.Background(), msg); err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to handle message on topic %s: %s", msg.Topic, err))
		}
	}
}

// close drains pending messages so that in-flight deliveries complete
// before the handler is cancelled.
func (s subscription) close() error {
	if err := s.Drain(); err != nil {
		return err
	}
	if s.cancel != nil {
		return s.cancel()
	}

	return nil
}
