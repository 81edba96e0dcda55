// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ messaging.PubSub = (*pubsub)(nil)

type subscription struct {
	tag     string
	handler messaging.MessageHandler
	done    chan struct{}
}

type pubsub struct {
	publisher
	logger        *slog.Logger
	mu            sync.Mutex
	closed        atomic.Bool
	subscriptions map[string]map[string]subscription
}

// NewPubSub returns RabbitMQ message publisher/subscriber.
func NewPubSub(url string, logger *slog.Logger, opts ...messaging.Option) (messaging.PubSub, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ret := &pubsub{
		publisher: publisher{
			conn:     conn,
			prefix:   defPrefix,
			exchange: defExchange,
			idp:      ulid.New(),
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

	if err := ret.init(); err != nil {
		conn.Close()
		return nil, err
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
	}

	// All subscribers of a topic share one queue and compete for its messages.
	queue := ps.routingKey(cfg.Topic)
	if _, err := ps.channel.QueueDeclare(queue, false, true, false, false, nil); err != nil {
		return err
	}
	if err := ps.channel.QueueBind(queue, queue, ps.exchange, false, nil); err != nil {
		return err
	}

	tag := formatConsumerTag(cfg.Topic, cfg.ID)
	deliveries, err := ps.channel.Consume(queue, tag, true, false, false, false, nil)
	if err != nil {
		return err
	}

	sub := subscription{
		tag:     tag,
		handler: cfg.Handler,
		done:    make(chan struct{}),
	}
	go ps.handle(deliveries, sub)

	s[cfg.ID] = sub
	ps.subscriptions[cfg.Topic] = s

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
	s, ok := ps.subscriptions[topic]
	if !ok {
		ps.mu.Unlock()
		return messaging.ErrNotSubscribed
	}
	sub, ok := s[id]
	if !ok {
		ps.mu.Unlock()
		return messaging.ErrNotSubscribed
	}
	delete(s, id)
	if len(s) == 0 {
		delete(ps.subscriptions, topic)
	}
	ps.mu.Unlock()

	// Handlers may publish on this pubsub, so the lock is not held while
	// waiting for them to finish.
	return ps.cancel(sub)
}

func (ps *pubsub) Close() error {
	if !ps.closed.CompareAndSwap(false, true) {
		return nil
	}

	ps.mu.Lock()
	var subs []subscription
	for _, s := range ps.subscriptions {
		for _, sub := range s {
			subs = append(subs, sub)
		}
	}
	ps.subscriptions = make(map[string]map[string]subscription)
	ps.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := ps.cancel(sub); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ps.conn.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// cancel stops the consumer, waits for its delivery loop to finish
// and cancels the handler.
func (ps *pubsub) cancel(sub subscription) error {
	if err := ps.channel.Cancel(sub.tag, false); err != nil {
		return err
	}
	<-sub.done

	return sub.handler.Cancel()
}

func (ps *pubsub) handle(deliveries <-chan amqp.Delivery, sub subscription) {
	defer close(sub.done)

	for d := range deliveries {
		msg, err := messaging.Decode(d.Body)
		if err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to unmarshal received message: %s", err))
			continue
		}
		if err := sub.handler.Handle(context.Background(), msg); err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to handle message on topic %s: %s", msg.Topic, err))
		}
	}
}

func formatConsumerTag(topic, id string) string {
	return fmt.Sprintf("%s-%s", topic, id)
}
