// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/absmach/workertraces"
)

var _ workertraces.Response = (*forwardRes)(nil)

// forwardRes carries the worker answer verbatim.
type forwardRes struct {
	data []byte
}

func (res forwardRes) Code() int {
	return http.StatusOK
}

func (res forwardRes) Headers() map[string]string {
	return map[string]string{}
}

func (res forwardRes) Empty() bool {
	return len(res.data) == 0
}
