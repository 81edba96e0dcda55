// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	errSubscribeTimeout   = errors.New("failed to subscribe due to timeout reached")
	errUnsubscribeTimeout = errors.New("failed to unsubscribe due to timeout reached")
)

var _ messaging.PubSub = (*pubsub)(nil)

type subscription struct {
	client mqtt.Client
	filter string
	cancel func() error
}

type pubsub struct {
	publisher
	address       string
	logger        *slog.Logger
	mu            sync.Mutex
	closed        atomic.Bool
	subscriptions map[string]map[string]subscription
}

// NewPubSub returns MQTT message publisher/subscriber. Every subscription
// owns a client connection so that unsubscribing one of them leaves the
// others untouched.
func NewPubSub(address string, logger *slog.Logger, opts ...messaging.Option) (messaging.PubSub, error) {
	ret := &pubsub{
		publisher: publisher{
			prefix:  defPrefix,
			timeout: defTimeout,
			idp:     ulid.New(),
		},
		address:       address,
		logger:        logger,
		subscriptions: make(map[string]map[string]subscription),
	}
	for _, opt := range opts {
		if err := opt(ret); err != nil {
			return nil, err
		}
	}

	if err := ret.connect(address, "publisher"); err != nil {
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
	}

	suffix, err := ps.idp.ID()
	if err != nil {
		return err
	}
	client, err := newClient(ps.address, fmt.Sprintf("%s-%s", cfg.ID, suffix), ps.timeout)
	if err != nil {
		return err
	}

	filter := ps.filter(cfg.Topic)
	token := client.Subscribe(filter, qos, ps.mqttHandler(cfg.Handler))
	if ok := token.WaitTimeout(ps.timeout); !ok {
		client.Disconnect(0)
		return errSubscribeTimeout
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return err
	}

	if s == nil {
		s = make(map[string]subscription)
		ps.subscriptions[cfg.Topic] = s
	}
	s[cfg.ID] = subscription{
		client: client,
		filter: filter,
		cancel: cfg.Handler.Cancel,
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
	s, ok := ps.subscriptions[topic]
	if !ok {
		ps.mu.Unlock()
		return messaging.ErrNotSubscribed
	}
	current, ok := s[id]
	if !ok {
		ps.mu.Unlock()
		return messaging.ErrNotSubscribed
	}
	delete(s, id)
	if len(s) == 0 {
		delete(ps.subscriptions, topic)
	}
	ps.mu.Unlock()

	return current.close(ps.timeout)
}

func (ps *pubsub) Close() error {
	if !ps.closed.CompareAndSwap(false, true) {
		return nil
	}

	ps.mu.Lock()
	subs := ps.subscriptions
	ps.subscriptions = make(map[string]map[string]subscription)
	ps.mu.Unlock()

	var errs []error
	for _, s := range subs {
		for _, sub := range s {
			if err := sub.close(ps.timeout); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := ps.publisher.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// filter returns the shared subscription filter for topic. The group name
// must not contain topic separators or wildcards.
func (ps *pubsub) filter(topic string) string {
	group := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(topic)

	return fmt.Sprintf("$share/%s/%s", group, ps.topic(topic))
}

func (ps *pubsub) mqttHandler(h messaging.MessageHandler) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		msg, err := messaging.Decode(m.Payload())
		if err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to unmarshal received message: %s", err))
			return
		}

		if err := h.Handle(context.Background(), msg); err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to handle message on topic %s: %s", msg.Topic, err))
		}
	}
}

func (s subscription) close(timeout time.Duration) error {
	var errs []error
	token := s.client.Unsubscribe(s.filter)
	if ok := token.WaitTimeout(timeout); !ok {
		errs = append(errs, errUnsubscribeTimeout)
	} else if err := token.Error(); err != nil {
		errs = append(errs, err)
	}
	s.client.Disconnect(quiesce)
	if s.cancel != nil {
		if err := s.cancel(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
