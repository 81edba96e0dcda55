// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package nats

import (
	"context"
	"fmt"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
	broker "github.com/nats-io/nats.go"
)

const (
	// A maximum number of reconnect attempts before NATS connection closes permanently.
	// Value -1 represents an unlimited number of reconnect retries, i.e. the client
	// will never give up on retrying to re-establish connection to NATS server.
	maxReconnects = -1

	defPrefix = "workers"
)

var _ messaging.Publisher = (*publisher)(nil)

type publisher struct {
	conn   *broker.Conn
	prefix string
	idp    workertraces.IDProvider
}

// NewPublisher returns NATS message Publisher.
func NewPublisher(ctx context.Context, url string, opts ...messaging.Option) (messaging.Publisher, error) {
	conn, err := broker.Connect(url, broker.MaxReconnects(maxReconnects))
	if err != nil {
		return nil, err
	}

	ret := &publisher{
		conn:   conn,
		prefix: defPrefix,
		idp:    ulid.New(),
	}

	for _, opt := range opts {
		if err := opt(ret); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return ret, nil
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

	if err := pub.conn.Publish(pub.subject(topic), data); err != nil {
		return err
	}

	return nil
}

func (pub *publisher) Close() error {
	pub.conn.Close()
	return nil
}

func (pub *publisher) subject(topic string) string {
	return fmt.Sprintf("%s.%s", pub.prefix, topic)
}
