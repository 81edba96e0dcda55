// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package brokers selects the message broker implementation from the
// scheme of the broker URL.
package brokers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/messaging/memory"
	"github.com/absmach/workertraces/pkg/messaging/mqtt"
	"github.com/absmach/workertraces/pkg/messaging/nats"
	"github.com/absmach/workertraces/pkg/messaging/rabbitmq"
)

// ErrUnsupportedBroker indicates a broker URL with an unknown scheme.
var ErrUnsupportedBroker = errors.New("unsupported message broker")

const (
	memoryScheme = "memory"
	natsScheme   = "nats"
	amqpScheme   = "amqp"
	amqpsScheme  = "amqps"
	mqttScheme   = "mqtt"
	mqttsScheme  = "mqtts"
)

// NewPubSub returns the publisher/subscriber for rawURL. An empty URL or the
// memory scheme selects the in-process bus, nats selects NATS, amqp or
// amqps select RabbitMQ and mqtt or mqtts select an MQTT broker.
//
// External brokers deliver each message of a topic to one subscriber across
// all processes. A message that only one process can handle needs a topic
// of its own.
func NewPubSub(ctx context.Context, rawURL string, logger *slog.Logger, opts ...messaging.Option) (messaging.PubSub, error) {
	scheme, err := parseScheme(rawURL)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "", memoryScheme:
		return memory.NewPubSub(logger, opts...)
	case natsScheme:
		return nats.NewPubSub(ctx, rawURL, logger, opts...)
	case amqpScheme, amqpsScheme:
		return rabbitmq.NewPubSub(rawURL, logger, opts...)
	case mqttScheme, mqttsScheme:
		return mqtt.NewPubSub(rawURL, logger, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBroker, scheme)
	}
}

func parseScheme(rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	return u.Scheme, nil
}
