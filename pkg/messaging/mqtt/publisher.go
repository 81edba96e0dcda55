// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/ulid"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	username   = "workertraces-mqtt"
	qos        = 2
	defPrefix  = "workers"
	defTimeout = 30 * time.Second

	// quiesce is the time in milliseconds a disconnecting client waits for
	// in-flight work.
	quiesce = 250
)

var (
	// ErrConnect indicates that connection to MQTT broker failed.
	ErrConnect = errors.New("failed to connect to MQTT broker")

	errPublishTimeout = errors.New("failed to publish due to timeout reached")
)

var _ messaging.Publisher = (*publisher)(nil)

type publisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
	idp     workertraces.IDProvider
}

// NewPublisher returns a new MQTT message publisher.
func NewPublisher(address string, opts ...messaging.Option) (messaging.Publisher, error) {
	ret := &publisher{
		prefix:  defPrefix,
		timeout: defTimeout,
		idp:     ulid.New(),
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

func (pub *publisher) connect(address, name string) error {
	id, err := pub.idp.ID()
	if err != nil {
		return err
	}
	client, err := newClient(address, fmt.Sprintf("%s-%s", name, id), pub.timeout)
	if err != nil {
		return err
	}
	pub.client = client

	return nil
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

	token := pub.client.Publish(pub.topic(topic), qos, false, data)
	if ok := token.WaitTimeout(pub.timeout); !ok {
		return errPublishTimeout
	}

	return token.Error()
}

func (pub *publisher) Close() error {
	pub.client.Disconnect(quiesce)
	return nil
}

func (pub *publisher) topic(topic string) string {
	return fmt.Sprintf("%s/%s", pub.prefix, topic)
}

func newClient(address, id string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		SetUsername(username).
		AddBroker(address).
		SetClientID(id).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if ok := token.WaitTimeout(timeout); !ok {
		return nil, ErrConnect
	}
	if token.Error() != nil {
		return nil, token.Error()
	}

	return client, nil
}
