// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/workertraces/gateway"
)

var _ gateway.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    gateway.Service
}

// LoggingMiddleware adds logging facilities to the gateway service.
func LoggingMiddleware(svc gateway.Service, logger *slog.Logger) gateway.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Forward(ctx context.Context, id, uri string) (res []byte, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("request",
				slog.String("id", id),
				slog.String("uri", uri),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Forward request failed", args...)
			return
		}
		args = append(args, slog.Int("response_size", len(res)))
		lm.logger.Info("Forward request completed successfully", args...)
	}(time.Now())

	return lm.svc.Forward(ctx, id, uri)
}
