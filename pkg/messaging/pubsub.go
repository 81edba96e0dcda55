// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
)

// Publisher and Subscriber errors shared by the broker implementations.
var (
	// ErrEmptyTopic indicates an attempt to publish or subscribe without a topic.
	ErrEmptyTopic = errors.New("empty topic")

	// ErrEmptyID indicates an attempt to subscribe without a subscriber ID.
	ErrEmptyID = errors.New("empty id")

	// ErrNotSubscribed indicates that the subscription does not exist.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrAlreadySubscribed indicates that the subscriber ID is taken on the topic.
	ErrAlreadySubscribed = errors.New("already subscribed to topic")

	// ErrNoSubscribers indicates that nobody consumes the topic.
	ErrNoSubscribers = errors.New("no subscribers for topic")

	// ErrClosed indicates usage of a closed publisher or subscriber.
	ErrClosed = errors.New("pubsub closed")
)

// Publisher specifies message publishing API.
//
// A published message is delivered to exactly one subscriber of the topic.
type Publisher interface {
	// Publishes message to the stream.
	Publish(ctx context.Context, topic string, msg *Message) error

	// Close gracefully closes message publisher's connection.
	Close() error
}

// MessageHandler represents Message handler for Subscriber.
//
//go:generate mockery --name MessageHandler --output=./mocks --filename handler.go --quiet --note "Copyright (c) Abstract Machines"
type MessageHandler interface {
	// Handle handles messages passed by underlying implementation.
	// The context carries the trace context extracted from the message.
	Handle(ctx context.Context, msg *Message) error

	// Cancel is used for cleanup during unsubscribing and it's optional.
	Cancel() error
}

type SubscriberConfig struct {
	ID      string
	Topic   string
	Handler MessageHandler
}

// Subscriber specifies message subscription API.
type Subscriber interface {
	// Subscribe subscribes to the message stream and consumes messages.
	Subscribe(ctx context.Context, cfg SubscriberConfig) error

	// Unsubscribe unsubscribes from the message stream and
	// stops consuming messages.
	Unsubscribe(ctx context.Context, id, topic string) error

	// Close gracefully closes message subscriber's connection.
	Close() error
}

// PubSub  represents aggregation interface for publisher and subscriber.
//
//go:generate mockery --name PubSub --output=./mocks --filename pubsub.go --quiet --note "Copyright (c) Abstract Machines"
type PubSub interface {
	Publisher
	Subscriber
}

// Option represents optional configuration for message broker.
//
// This is used to provide optional configuration parameters to the
// underlying publisher and pubsub implementation so that it can be
// configured to meet the specific needs.
//
// Options are compiled against the concrete broker, so an option of
// one broker passed to another returns an error.
//
// Example:
//
//	nats.NewPubSub(ctx, url, logger, nats.Prefix("workers"))
type Option func(vals interface{}) error
