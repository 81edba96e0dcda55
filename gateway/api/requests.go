// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"strings"

	"github.com/absmach/workertraces/pkg/apiutil"
)

type forwardReq struct {
	id  string
	uri string
}

func (req forwardReq) validate() error {
	if strings.TrimSpace(req.id) == "" {
		return apiutil.ErrMissingID
	}

	return nil
}
