// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/gateway"
	"github.com/absmach/workertraces/internal/api"
	"github.com/absmach/workertraces/pkg/apiutil"
	"github.com/absmach/workertraces/pkg/errors"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	connectFailedMsg = "Failed to connect to socket server"
	noResponseMsg    = "Socket connection closed without response"
	timeoutMsg       = "Socket server response timeout"
)

// MakeHandler returns a HTTP handler for the gateway API endpoints.
func MakeHandler(svc gateway.Service, logger *slog.Logger, svcName, instanceID string) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	r := chi.NewRouter()
	r.Get("/api", otelhttp.NewHandler(kithttp.NewServer(
		forwardEndpoint(svc),
		decodeForwardReq,
		encodeForwardRes,
		opts...,
	), "forward").ServeHTTP)

	r.Get("/health", workertraces.Health(svcName, instanceID))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func decodeForwardReq(_ context.Context, r *http.Request) (interface{}, error) {
	return forwardReq{
		id:  apiutil.ReadFirstStringQuery(r, api.IDKey, ""),
		uri: r.URL.RequestURI(),
	}, nil
}

// encodeForwardRes writes the worker answer as the response body.
func encodeForwardRes(_ context.Context, w http.ResponseWriter, response interface{}) error {
	res := response.(forwardRes)
	w.Header().Set("Content-Type", api.ContentType)
	w.WriteHeader(res.Code())
	if res.Empty() {
		return nil
	}
	_, err := w.Write(res.data)

	return err
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch {
	case errors.Contains(err, gateway.ErrConnect):
		msg := connectFailedMsg
		if _, cause := errors.Unwrap(err); cause != nil && cause.Error() != gateway.ErrConnect.Error() {
			msg += ": " + cause.Error()
		}
		api.WriteError(w, http.StatusBadGateway, errors.New(msg))
	case errors.Contains(err, gateway.ErrNoResponse):
		api.WriteError(w, http.StatusGatewayTimeout, errors.New(noResponseMsg))
	case errors.Contains(err, gateway.ErrTimeout):
		api.WriteError(w, http.StatusGatewayTimeout, errors.New(timeoutMsg))
	default:
		api.EncodeError(ctx, err, w)
	}
}
