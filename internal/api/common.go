// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/pkg/apiutil"
	"github.com/absmach/workertraces/pkg/errors"
	svcerr "github.com/absmach/workertraces/pkg/errors/service"
)

const (
	IDKey = "id"
	// ContentType represents JSON content type.
	ContentType = "application/json"
)

// ErrorRes is the body of every error response.
type ErrorRes struct {
	Err string `json:"error"`
}

// EncodeResponse encodes successful response.
func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(workertraces.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeError encodes an error response. Validation errors are reported
// with the message of the validation failure itself.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	if errors.Contains(err, apiutil.ErrValidation) {
		_, err = errors.Unwrap(err)
	}

	var code int
	switch {
	case errors.Contains(err, svcerr.ErrMalformedEntity),
		errors.Contains(err, errors.ErrMalformedEntity),
		errors.Contains(err, apiutil.ErrMissingID),
		errors.Contains(err, apiutil.ErrInvalidQueryParams),
		errors.Contains(err, apiutil.ErrValidation):
		code = http.StatusBadRequest
	case errors.Contains(err, svcerr.ErrNotFound),
		errors.Contains(err, errors.ErrNotFound):
		code = http.StatusNotFound
	case errors.Contains(err, apiutil.ErrUnsupportedContentType),
		errors.Contains(err, errors.ErrUnsupportedContentType):
		code = http.StatusUnsupportedMediaType
	case errors.Contains(err, svcerr.ErrUnavailable):
		code = http.StatusBadGateway
	case errors.Contains(err, svcerr.ErrTimeout):
		code = http.StatusGatewayTimeout
	default:
		code = http.StatusInternalServerError
	}

	WriteError(w, code, err)
}

// WriteError writes err as a JSON error body with the given status code.
func WriteError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(code)

	res := ErrorRes{Err: http.StatusText(code)}
	if err != nil {
		res.Err = err.Error()
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
