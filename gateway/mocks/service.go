// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/workertraces/gateway"
	"github.com/stretchr/testify/mock"
)

var _ gateway.Service = (*Service)(nil)

// Service is a mock type for the Service type.
type Service struct {
	mock.Mock
}

// Forward provides a mock function with given fields: ctx, id, uri.
func (m *Service) Forward(ctx context.Context, id string, uri string) ([]byte, error) {
	ret := m.Called(ctx, id, uri)

	var data []byte
	if rf, ok := ret.Get(0).(func(context.Context, string, string) []byte); ok {
		data = rf(ctx, id, uri)
	} else if ret.Get(0) != nil {
		data = ret.Get(0).([]byte)
	}

	return data, ret.Error(1)
}
