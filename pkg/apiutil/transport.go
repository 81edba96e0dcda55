// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package apiutil

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/absmach/workertraces/pkg/errors"
	kithttp "github.com/go-kit/kit/transport/http"
)

// LoggingErrorEncoder is a go-kit error encoder logging decorator.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		if errors.Contains(err, ErrValidation) {
			logger.Error(err.Error())
		}
		enc(ctx, err, w)
	}
}

// ReadFirstStringQuery reads the first value of the string http query
// parameter key. Repeated values after the first are ignored.
func ReadFirstStringQuery(r *http.Request, key, def string) string {
	vals := r.URL.Query()[key]
	if len(vals) == 0 {
		return def
	}

	return vals[0]
}
