// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/absmach/workertraces/gateway"
	"github.com/absmach/workertraces/pkg/apiutil"
	"github.com/absmach/workertraces/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func forwardEndpoint(svc gateway.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(forwardReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		data, err := svc.Forward(ctx, req.id, req.uri)
		if err != nil {
			return nil, err
		}

		return forwardRes{data: data}, nil
	}
}
