// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/workertraces/worker"
)

var _ worker.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    worker.Service
}

// LoggingMiddleware adds logging facilities to the worker service.
func LoggingMiddleware(svc worker.Service, logger *slog.Logger) worker.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Dispatch(ctx context.Context, conn worker.Conn, req worker.Request) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("conn_id", conn.ID()),
			slog.Group("request",
				slog.String("id", req.ID),
				slog.String("request", req.Request),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Dispatch request failed", args...)
			return
		}
		lm.logger.Info("Dispatch request completed successfully", args...)
	}(time.Now())

	return lm.svc.Dispatch(ctx, conn, req)
}

func (lm *loggingMiddleware) Deliver(ctx context.Context, res worker.Response) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("response",
				slog.String("id", res.ID),
				slog.String("response", res.Response),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Deliver response failed", args...)
			return
		}
		lm.logger.Info("Deliver response completed successfully", args...)
	}(time.Now())

	return lm.svc.Deliver(ctx, res)
}

func (lm *loggingMiddleware) Disconnect(ctx context.Context, conn worker.Conn) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("conn_id", conn.ID()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Disconnect failed", args...)
			return
		}
		lm.logger.Info("Disconnect completed successfully", args...)
	}(time.Now())

	return lm.svc.Disconnect(ctx, conn)
}
