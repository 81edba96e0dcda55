// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/stretchr/testify/mock"
)

var _ messaging.PubSub = (*PubSub)(nil)

// PubSub is a mock type for the PubSub type.
type PubSub struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, topic, msg.
func (m *PubSub) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	ret := m.Called(ctx, topic, msg)

	return ret.Error(0)
}

// Subscribe provides a mock function with given fields: ctx, cfg.
func (m *PubSub) Subscribe(ctx context.Context, cfg messaging.SubscriberConfig) error {
	ret := m.Called(ctx, cfg)

	return ret.Error(0)
}

// Unsubscribe provides a mock function with given fields: ctx, id, topic.
func (m *PubSub) Unsubscribe(ctx context.Context, id string, topic string) error {
	ret := m.Called(ctx, id, topic)

	return ret.Error(0)
}

// Close provides a mock function with given fields.
func (m *PubSub) Close() error {
	ret := m.Called()

	return ret.Error(0)
}
