// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"github.com/absmach/workertraces/worker"
	"github.com/stretchr/testify/mock"
)

var _ worker.Conn = (*Conn)(nil)

// Conn is a mock type for the Conn type.
type Conn struct {
	mock.Mock
}

// ID provides a mock function with given fields.
func (m *Conn) ID() string {
	ret := m.Called()

	return ret.String(0)
}

// Write provides a mock function with given fields: data.
func (m *Conn) Write(data []byte) error {
	ret := m.Called(data)

	return ret.Error(0)
}

// Close provides a mock function with given fields.
func (m *Conn) Close() error {
	ret := m.Called()

	return ret.Error(0)
}
