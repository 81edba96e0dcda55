// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/stretchr/testify/mock"
)

var _ messaging.MessageHandler = (*MessageHandler)(nil)

// MessageHandler is a mock type for the MessageHandler type.
type MessageHandler struct {
	mock.Mock
}

// Handle provides a mock function with given fields: ctx, msg.
func (m *MessageHandler) Handle(ctx context.Context, msg *messaging.Message) error {
	ret := m.Called(ctx, msg)

	return ret.Error(0)
}

// Cancel provides a mock function with given fields.
func (m *MessageHandler) Cancel() error {
	ret := m.Called()

	return ret.Error(0)
}
