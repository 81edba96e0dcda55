// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/workertraces/pkg/events"
	"github.com/stretchr/testify/mock"
)

var _ events.Publisher = (*Publisher)(nil)

// Publisher is a mock type for the Publisher type.
type Publisher struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, event.
func (m *Publisher) Publish(ctx context.Context, event events.Event) error {
	ret := m.Called(ctx, event)

	return ret.Error(0)
}

// Close provides a mock function with given fields.
func (m *Publisher) Close() error {
	ret := m.Called()

	return ret.Error(0)
}
