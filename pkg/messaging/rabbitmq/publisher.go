// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"context"
	"fmt"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defPrefix   = "workers"
	defExchange = "workertraces"
	contentType = "application/json"
)

var _ messaging.Publisher = (*publisher)(nil)

type publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	prefix   string
	exchange string
	idp      workertraces.IDProvider
}

// NewPublisher returns RabbitMQ message Publisher.
func NewPublisher(url string, opts ...messaging.Option) (messaging.Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ret := &publisher{
		conn:     conn,
		prefix:   defPrefix,
		exchange: defExchange,
		idp:      ulid.New(),
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

// init opens the channel unless one was provided and declares the exchange.
func (pub *publisher) init() error {
	if pub.channel == nil {
		ch, err := pub.conn.Channel()
		if err != nil {
			return err
		}
		pub.channel = ch
	}

	return pub.channel.ExchangeDeclare(pub.exchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

func (pub *publisher) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	if topic == "" {
		return messaging.ErrEmptyTopic
	}

	out := msg.Clone()
	out.Stamp(topic)
	if out.ID == "" {
		id, err := pub.idp.ID()
		if err != nil {
			return err
		}
		out.ID = id
	}
	data, err := messaging.Encode(out)
	if err != nil {
		return err
	}

	return pub.channel.PublishWithContext(
		ctx,
		pub.exchange,
		pub.routingKey(topic),
		false,
		false,
		amqp.Publishing{
			Headers:     amqp.Table{},
			ContentType: contentType,
			MessageId:   out.ID,
			AppId:       "workertraces-publisher",
			Body:        data,
		})
}

func (pub *publisher) Close() error {
	return pub.conn.Close()
}

func (pub *publisher) routingKey(topic string) string {
	return fmt.Sprintf("%s.%s", pub.prefix, topic)
}
