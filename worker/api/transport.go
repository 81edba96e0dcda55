// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"log/slog"
	"net/http"

	"github.com/absmach/workertraces"
	"github.com/absmach/workertraces/worker"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MakeHandler returns the worker HTTP handler. It serves WebSocket clients
// on /ws next to the health and metrics endpoints.
func MakeHandler(svc worker.Service, cfg Config, logger *slog.Logger, svcName, instanceID string) http.Handler {
	r := chi.NewRouter()

	r.Get("/ws", newWSHandler(svc, cfg, logger).ServeHTTP)
	r.Get("/health", workertraces.Health(svcName, instanceID))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
