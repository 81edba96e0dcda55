// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
)

const defQueueSize = 1024

// ErrInvalidType is returned when an option is applied to the wrong type.
var ErrInvalidType = errors.New("invalid type")

var _ messaging.PubSub = (*pubsub)(nil)

type subscription struct {
	id      string
	topic   string
	handler messaging.MessageHandler
	queue   chan *messaging.Message
	done    chan struct{}
	stopped chan struct{}
}

type pubsub struct {
	mu        sync.RWMutex
	topics    map[string][]*subscription
	next      map[string]uint64
	closed    bool
	queueSize int
	idp       workertraces.IDProvider
	logger    *slog.Logger
}

// NewPubSub returns in-process message publisher/subscriber.
func NewPubSub(logger *slog.Logger, opts ...messaging.Option) (messaging.PubSub, error) {
	ps := &pubsub{
		topics:    make(map[string][]*subscription),
		next:      make(map[string]uint64),
		queueSize: defQueueSize,
		idp:       ulid.New(),
		logger:    logger,
	}

	for _, opt := range opts {
		if err := opt(ps); err != nil {
			return nil, err
		}
	}

	return ps, nil
}

// QueueSize sets the capacity of each subscription queue.
func QueueSize(size int) messaging.Option {
	return func(val interface{}) error {
		ps, ok := val.(*pubsub)
		if !ok {
			return ErrInvalidType
		}
		if size < 1 {
			return fmt.Errorf("invalid queue size %d", size)
		}
		ps.queueSize = size

		return nil
	}
}

func (ps *pubsub) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	if topic == "" {
		return messaging.ErrEmptyTopic
	}

	out := msg.Clone()
	out.Stamp(topic)
	if out.ID == "" {
		id, err := ps.idp.ID()
		if err != nil {
			return err
		}
		out.ID = id
	}

	sub, err := ps.pick(topic)
	if err != nil {
		return err
	}

	select {
	case sub.queue <- out:
		return nil
	case <-sub.done:
		return messaging.ErrNotSubscribed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pick returns the next subscriber of topic in round-robin order.
func (ps *pubsub) pick(topic string) (*subscription, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return nil, messaging.ErrClosed
	}
	subs := ps.topics[topic]
	if len(subs) == 0 {
		return nil, messaging.ErrNoSubscribers
	}
	n := ps.next[topic]
	ps.next[topic] = n + 1

	return subs[n%uint64(len(subs))], nil
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

	if ps.closed {
		return messaging.ErrClosed
	}
	for _, s := range ps.topics[cfg.Topic] {
		if s.id == cfg.ID {
			return messaging.ErrAlreadySubscribed
		}
	}

	sub := &subscription{
		id:      cfg.ID,
		topic:   cfg.Topic,
		handler: cfg.Handler,
		queue:   make(chan *messaging.Message, ps.queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	ps.topics[cfg.Topic] = append(ps.topics[cfg.Topic], sub)

	go ps.consume(sub)

	return nil
}

// consume is the event loop of a subscription.
func (ps *pubsub) consume(sub *subscription) {
	defer close(sub.stopped)

	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.queue:
			if err := sub.handler.Handle(context.Background(), msg); err != nil {
				ps.logger.Warn(fmt.Sprintf("Failed to handle message on topic %s: %s", sub.topic, err))
			}
		}
	}
}

func (ps *pubsub) Unsubscribe(ctx context.Context, id, topic string) error {
	if id == "" {
		return messaging.ErrEmptyID
	}
	if topic == "" {
		return messaging.ErrEmptyTopic
	}

	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return messaging.ErrClosed
	}
	sub := ps.remove(id, topic)
	ps.mu.Unlock()

	if sub == nil {
		return messaging.ErrNotSubscribed
	}

	return ps.stop(sub)
}

// remove detaches subscription from topic. Caller must hold the lock.
func (ps *pubsub) remove(id, topic string) *subscription {
	subs := ps.topics[topic]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		subs = append(subs[:i:i], subs[i+1:]...)
		if len(subs) == 0 {
			delete(ps.topics, topic)
			delete(ps.next, topic)
		} else {
			ps.topics[topic] = subs
		}

		return s
	}

	return nil
}

func (ps *pubsub) stop(sub *subscription) error {
	close(sub.done)
	<-sub.stopped

	return sub.handler.Cancel()
}

func (ps *pubsub) Close() error {
	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil
	}
	ps.closed = true
	var subs []*subscription
	for _, ts := range ps.topics {
		subs = append(subs, ts...)
	}
	ps.topics = make(map[string][]*subscription)
	ps.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := ps.stop(sub); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
