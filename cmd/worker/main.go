// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains worker main function to start the worker service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"

	wtlog "github.com/absmach/workertraces/logger"
	"github.com/absmach/workertraces/pkg/jaeger"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/messaging/brokers"
	"github.com/absmach/workertraces/pkg/messaging/handler"
	"github.com/absmach/workertraces/pkg/messaging/tracing"
	"github.com/absmach/workertraces/pkg/prometheus"
	"github.com/absmach/workertraces/pkg/server"
	httpserver "github.com/absmach/workertraces/pkg/server/http"
	tcpserver "github.com/absmach/workertraces/pkg/server/tcp"
	"github.com/absmach/workertraces/pkg/uuid"
	"github.com/absmach/workertraces/worker"
	"github.com/absmach/workertraces/worker/api"
	"github.com/absmach/workertraces/worker/events"
	"github.com/absmach/workertraces/worker/middleware"
	"github.com/caarlos0/env/v7"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	svcName        = "worker"
	envPrefixTCP   = "WT_WORKER_TCP_"
	envPrefixHTTP  = "WT_WORKER_HTTP_"
	envPrefixConn  = "WT_WORKER_"
	defSvcTCPPort  = "8081"
	defSvcHTTPPort = "9081"
	responderID    = "responder"
	answerID       = "answer"
)

type config struct {
	LogLevel      string  `env:"WT_WORKER_LOG_LEVEL"      envDefault:"info"`
	ServiceName   string  `env:"WT_WORKER_SERVICE_NAME"   envDefault:"main"`
	Greeting      string  `env:"WT_WORKER_GREETING"       envDefault:"Hello world!"`
	Workers       int     `env:"WT_WORKER_POOL_SIZE"      envDefault:"1"`
	WorkerQueue   int     `env:"WT_WORKER_QUEUE_SIZE"     envDefault:"64"`
	BrokerURL     string  `env:"WT_MESSAGE_BROKER_URL"    envDefault:"memory://"`
	TracingPolicy string  `env:"WT_MESSAGE_TRACING"       envDefault:"propagate"`
	ESURL         string  `env:"WT_ES_URL"                envDefault:""`
	InstanceID    string  `env:"WT_WORKER_INSTANCE_ID"    envDefault:""`
	JaegerURL     url.URL `env:"WT_JAEGER_URL"            envDefault:"http://localhost:4318/v1/traces"`
	TraceRatio    float64 `env:"WT_JAEGER_TRACE_RATIO"    envDefault:"1.0"`
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

	policy, err := tracing.ParsePolicy(cfg.TracingPolicy)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load %s tracing policy : %s", svcName, err))
		exitCode = 1
		return
	}

	tp, err := jaeger.NewProvider(ctx, cfg.ServiceName, cfg.JaegerURL, cfg.InstanceID, cfg.TraceRatio)
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

	pubSub, err := brokers.NewPubSub(ctx, cfg.BrokerURL, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to connect to message broker: %s", err))
		exitCode = 1
		return
	}
	defer pubSub.Close()
	pub := tracing.NewPublisher(tracer, pubSub, policy)

	svc, err := newService(ctx, pub, tracer, logger, cfg)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create %s service: %s", svcName, err))
		exitCode = 1
		return
	}

	if err := subscribe(ctx, pubSub, pub, svc, tracer, policy, logger, cfg); err != nil {
		logger.Error(fmt.Sprintf("failed to subscribe to message broker: %s", err))
		exitCode = 1
		return
	}

	connConfig := api.Config{}
	if err := env.Parse(&connConfig, env.Options{Prefix: envPrefixConn}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s connection configuration : %s", svcName, err))
		exitCode = 1
		return
	}

	tcpServerConfig := server.Config{Port: defSvcTCPPort}
	if err := env.Parse(&tcpServerConfig, env.Options{Prefix: envPrefixTCP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s TCP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}
	ts := tcpserver.NewServer(ctx, cancel, svcName, tcpServerConfig, api.NewConnHandler(svc, connConfig, logger), logger)

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}
	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, connConfig, logger, svcName, cfg.InstanceID), logger)

	g.Go(func() error {
		return ts.Start()
	})

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, ts, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}

func newService(ctx context.Context, pub messaging.Publisher, tracer trace.Tracer, logger *slog.Logger, cfg config) (worker.Service, error) {
	svc := worker.NewService(worker.NewRegistry(), pub, worker.RequestTopic, worker.InstanceAnswerTopic(cfg.InstanceID))

	if cfg.ESURL != "" {
		var err error
		svc, err = events.NewEventStoreMiddleware(ctx, svc, cfg.ESURL)
		if err != nil {
			return nil, err
		}
	}

	svc = middleware.LoggingMiddleware(svc, logger)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.MetricsMiddleware(svc, counter, latency)
	svc = middleware.TracingMiddleware(svc, tracer)

	return svc, nil
}

// subscribe wires the responder on the request topic and the answer
// handler on the answer topic of this instance. The responder runs on the
// delivering goroutine while answers are offloaded to the worker pool. The
// pool wraps the tracing handler so the answer process span covers the
// delivery.
func subscribe(ctx context.Context, sub messaging.Subscriber, pub messaging.Publisher, svc worker.Service, tracer trace.Tracer, policy tracing.TracingPolicy, logger *slog.Logger, cfg config) error {
	responder := tracing.NewHandler(tracer, worker.RequestTopic, policy, worker.NewResponder(pub, worker.AnswerTopic, cfg.Greeting))
	if err := sub.Subscribe(ctx, messaging.SubscriberConfig{
		ID:      responderID,
		Topic:   worker.RequestTopic,
		Handler: responder,
	}); err != nil {
		return err
	}

	answerTopic := worker.InstanceAnswerTopic(cfg.InstanceID)
	answers := tracing.NewHandler(tracer, answerTopic, policy, worker.NewAnswerHandler(svc))
	answers = handler.NewWorker(answers, logger, cfg.Workers, cfg.WorkerQueue)

	return sub.Subscribe(ctx, messaging.SubscriberConfig{
		ID:      answerID,
		Topic:   answerTopic,
		Handler: answers,
	})
}
