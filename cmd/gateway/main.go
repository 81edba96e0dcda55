// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains gateway main function to start the gateway service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/absmach/workertraces/gateway"
	"github.com/absmach/workertraces/gateway/api"
	"github.com/absmach/workertraces/gateway/middleware"
	wtlog "github.com/absmach/workertraces/logger"
	"github.com/absmach/workertraces/pkg/jaeger"
	"github.com/absmach/workertraces/pkg/prometheus"
	"github.com/absmach/workertraces/pkg/server"
	httpserver "github.com/absmach/workertraces/pkg/server/http"
	"github.com/absmach/workertraces/pkg/uuid"
	"github.com/caarlos0/env/v7"
	"golang.org/x/sync/errgroup"
)

const (
	svcName         = "gateway"
	envPrefixHTTP   = "WT_GATEWAY_HTTP_"
	envPrefixWorker = "WT_GATEWAY_WORKER_"
	defSvcHTTPPort  = "8080"
)

type config struct {
	LogLevel   string  `env:"WT_GATEWAY_LOG_LEVEL"   envDefault:"info"`
	InstanceID string  `env:"WT_GATEWAY_INSTANCE_ID" envDefault:""`
	JaegerURL  url.URL `env:"WT_JAEGER_URL"          envDefault:"http://localhost:4318/v1/traces"`
	TraceRatio float64 `env:"WT_JAEGER_TRACE_RATIO"  envDefault:"1.0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}

	logger, err := wtlog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err)
	}

	var exitCode int
	defer wtlog.ExitWithError(&exitCode)

	if cfg.InstanceID == "" {
		if cfg.InstanceID, err = uuid.New().ID(); err != nil {
			logger.Error(fmt.Sprintf("failed to generate instanceID: %s", err))
			exitCode = 1
			return
		}
	}

	tp, err := jaeger.NewProvider(ctx, svcName, cfg.JaegerURL, cfg.InstanceID, cfg.TraceRatio)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to init Jaeger: %s", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error(fmt.Sprintf("error shutting down tracer provider: %v", err))
		}
	}()
	tracer := tp.Tracer(svcName)

	workerConfig := gateway.Config{}
	if err := env.Parse(&workerConfig, env.Options{Prefix: envPrefixWorker}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s worker client configuration : %s", svcName, err))
		exitCode = 1
		return
	}

	svc := gateway.NewService(workerConfig)
	svc = middleware.LoggingMiddleware(svc, logger)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.MetricsMiddleware(svc, counter, latency)
	svc = middleware.TracingMiddleware(svc, tracer)

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}
	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, svcName, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}
