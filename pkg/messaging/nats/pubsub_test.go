// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package nats_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	wtlog "github.com/absmach/workertraces/logger"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/messaging/nats"
	broker "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	topic    = "vertx.worker.address"
	clientID = "9b7b1b3f-b1b0-46a8-a717-b8213f9eda3b"
)

var data = []byte(`{"id":"1","request":"/api?id=1"}`)

type handler struct {
	msgs      chan *messaging.Message
	cancelled chan struct{}
}

func newHandler() handler {
	return handler{
		msgs:      make(chan *messaging.Message, 10),
		cancelled: make(chan struct{}, 1),
	}
}

func (h handler) Handle(_ context.Context, msg *messaging.Message) error {
	h.msgs <- msg
	return nil
}

func (h handler) Cancel() error {
	h.cancelled <- struct{}{}
	return nil
}

func receive(t *testing.T, msgs <-chan *messaging.Message) *messaging.Message {
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublisher(t *testing.T) {
	h := newHandler()
	err := pubsub.Subscribe(context.Background(), messaging.SubscriberConfig{ID: clientID, Topic: topic, Handler: h})
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	defer func() {
		err := pubsub.Unsubscribe(context.Background(), clientID, topic)
		require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	}()

	cases := []struct {
		desc    string
		payload []byte
		headers map[string]string
	}{
		{
			desc:    "publish message with nil payload",
			payload: nil,
		},
		{
			desc:    "publish message with payload",
			payload: data,
		},
		{
			desc:    "publish message with headers",
			payload: data,
			headers: map[string]string{"traceparent": "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"},
		},
	}

	for _, tc := range cases {
		expected := messaging.Message{
			Publisher: clientID,
			Headers:   tc.headers,
			Payload:   tc.payload,
		}
		err := publisher.Publish(context.Background(), topic, &expected)
		require.Nil(t, err, fmt.Sprintf("%s: got unexpected error: %s", tc.desc, err))

		received := receive(t, h.msgs)
		assert.NotEmpty(t, received.ID, fmt.Sprintf("%s: expected message id", tc.desc))
		assert.Equal(t, topic, received.Topic, fmt.Sprintf("%s: expected topic %s got %s", tc.desc, topic, received.Topic))
		assert.Equal(t, expected.Publisher, received.Publisher, tc.desc)
		assert.Equal(t, expected.Headers, received.Headers, tc.desc)
		assert.Equal(t, expected.Payload, received.Payload, tc.desc)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	err := publisher.Publish(context.Background(), "", &messaging.Message{Payload: data})
	assert.Equal(t, messaging.ErrEmptyTopic, err, fmt.Sprintf("expected %s got %s", messaging.ErrEmptyTopic, err))
}

func TestSubscribeUnsubscribe(t *testing.T) {
	cases := []struct {
		desc      string
		topic     string
		clientID  string
		err       error
		subscribe bool
	}{
		{
			desc:      "subscribe to a topic with an ID",
			topic:     topic,
			clientID:  "clientid1",
			subscribe: true,
		},
		{
			desc:      "subscribe to the same topic with a different ID",
			topic:     topic,
			clientID:  "clientid2",
			subscribe: true,
		},
		{
			desc:      "subscribe to an already subscribed topic with an ID",
			topic:     topic,
			clientID:  "clientid1",
			err:       messaging.ErrAlreadySubscribed,
			subscribe: true,
		},
		{
			desc:      "subscribe to an empty topic",
			topic:     "",
			clientID:  "clientid1",
			err:       messaging.ErrEmptyTopic,
			subscribe: true,
		},
		{
			desc:      "subscribe with an empty ID",
			topic:     topic,
			clientID:  "",
			err:       messaging.ErrEmptyID,
			subscribe: true,
		},
		{
			desc:     "unsubscribe from a topic with an ID",
			topic:    topic,
			clientID: "clientid1",
		},
		{
			desc:     "unsubscribe from a non-existent topic",
			topic:    "h",
			clientID: "clientid1",
			err:      messaging.ErrNotSubscribed,
		},
		{
			desc:     "unsubscribe from an already unsubscribed topic",
			topic:    topic,
			clientID: "clientid1",
			err:      messaging.ErrNotSubscribed,
		},
		{
			desc:     "unsubscribe from the same topic with a different ID",
			topic:    topic,
			clientID: "clientid2",
		},
		{
			desc:     "unsubscribe with an empty ID",
			topic:    topic,
			clientID: "",
			err:      messaging.ErrEmptyID,
		},
	}

	for _, tc := range cases {
		var err error
		switch tc.subscribe {
		case true:
			err = pubsub.Subscribe(context.Background(), messaging.SubscriberConfig{ID: tc.clientID, Topic: tc.topic, Handler: newHandler()})
		default:
			err = pubsub.Unsubscribe(context.Background(), tc.clientID, tc.topic)
		}
		assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
	}
}

func TestQueueGroupDelivery(t *testing.T) {
	const n = 20

	h1, h2 := newHandler(), newHandler()
	h1.msgs = make(chan *messaging.Message, n)
	h2.msgs = make(chan *messaging.Message, n)
	for id, h := range map[string]handler{"first": h1, "second": h2} {
		err := pubsub.Subscribe(context.Background(), messaging.SubscriberConfig{ID: id, Topic: topic, Handler: h})
		require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	}

	for i := 0; i < n; i++ {
		err := pubsub.Publish(context.Background(), topic, &messaging.Message{Payload: data})
		require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	}

	assert.Eventually(t, func() bool {
		return len(h1.msgs)+len(h2.msgs) == n
	}, 5*time.Second, 50*time.Millisecond, "every message must be delivered exactly once")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, n, len(h1.msgs)+len(h2.msgs), "messages must not be delivered twice")

	for _, id := range []string{"first", "second"} {
		err := pubsub.Unsubscribe(context.Background(), id, topic)
		require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	}
	for _, h := range []handler{h1, h2} {
		select {
		case <-h.cancelled:
		case <-time.After(time.Second):
			t.Fatal("handler was not cancelled on unsubscribe")
		}
	}
}

func TestPrefix(t *testing.T) {
	ps, err := nats.NewPubSub(context.Background(), address, wtlog.NewMock(), nats.Prefix("custom"))
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	defer ps.Close()

	conn, err := broker.Connect(address)
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	defer conn.Close()

	raw, err := conn.SubscribeSync("custom." + topic)
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	require.Nil(t, conn.Flush())

	err = ps.Publish(context.Background(), topic, &messaging.Message{Payload: data})
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))

	m, err := raw.NextMsg(5 * time.Second)
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	msg, err := messaging.Decode(m.Data)
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	assert.Equal(t, data, msg.Payload)
}

func TestClose(t *testing.T) {
	ps, err := nats.NewPubSub(context.Background(), address, wtlog.NewMock())
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))

	h := newHandler()
	err = ps.Subscribe(context.Background(), messaging.SubscriberConfig{ID: clientID, Topic: topic, Handler: h})
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))

	err = ps.Close()
	assert.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	<-h.cancelled

	err = ps.Publish(context.Background(), topic, &messaging.Message{})
	assert.Equal(t, messaging.ErrClosed, err)
	err = ps.Subscribe(context.Background(), messaging.SubscriberConfig{ID: clientID, Topic: topic, Handler: h})
	assert.Equal(t, messaging.ErrClosed, err)
}

func TestInvalidOption(t *testing.T) {
	_, err := nats.NewPubSub(context.Background(), address, wtlog.NewMock(), func(interface{}) error { return nats.ErrInvalidType })
	assert.Equal(t, nats.ErrInvalidType, err)
}
