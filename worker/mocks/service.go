// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/workertraces/worker"
	"github.com/stretchr/testify/mock"
)

var _ worker.Service = (*Service)(nil)

// Service is a mock type for the Service type.
type Service struct {
	mock.Mock
}

// Dispatch provides a mock function with given fields: ctx, conn, req.
func (m *Service) Dispatch(ctx context.Context, conn worker.Conn, req worker.Request) error {
	ret := m.Called(ctx, conn, req)

	return ret.Error(0)
}

// Deliver provides a mock function with given fields: ctx, res.
func (m *Service) Deliver(ctx context.Context, res worker.Response) error {
	ret := m.Called(ctx, res)

	return ret.Error(0)
}

// Disconnect provides a mock function with given fields: ctx, conn.
func (m *Service) Disconnect(ctx context.Context, conn worker.Conn) error {
	ret := m.Called(ctx, conn)

	return ret.Error(0)
}
