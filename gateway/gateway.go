// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"time"

	"github.com/absmach/workertraces/pkg/errors"
)

const (
	// DefConnectTimeout bounds a single attempt to connect to the worker.
	DefConnectTimeout = 5 * time.Second

	// DefReconnectAttempts is the number of connect retries after the first attempt.
	DefReconnectAttempts = 2

	// DefReconnectInterval is the pause between connect attempts.
	DefReconnectInterval = time.Second

	// DefResponseTimeout bounds the wait for the worker's answer.
	DefResponseTimeout = 100 * time.Second
)

var (
	// ErrMissingID indicates a request without an id.
	ErrMissingID = errors.New("id parameter is required")

	// ErrConnect indicates that the worker could not be reached.
	ErrConnect = errors.New("failed to connect to socket server")

	// ErrTimeout indicates that the worker did not answer in time.
	ErrTimeout = errors.New("socket response timed out")

	// ErrNoResponse indicates that the worker closed the connection without answering.
	ErrNoResponse = errors.New("socket connection closed without response")
)

// Config defines the worker connection options.
type Config struct {
	Address           string        `env:"ADDRESS"            envDefault:"localhost:8081"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT"    envDefault:"5s"`
	ReconnectAttempts uint64        `env:"RECONNECT_ATTEMPTS" envDefault:"2"`
	ReconnectInterval time.Duration `env:"RECONNECT_INTERVAL" envDefault:"1s"`
	ResponseTimeout   time.Duration `env:"RESPONSE_TIMEOUT"   envDefault:"100s"`
}

// Service specifies an API that must be fulfilled by the domain service
// implementation, and all of its decorators (e.g. logging & metrics).
//
//go:generate mockery --name Service --output=./mocks --filename service.go --quiet --note "Copyright (c) Abstract Machines"
type Service interface {
	// Forward sends the request uri under id to the worker and returns the
	// worker's raw answer.
	Forward(ctx context.Context, id, uri string) ([]byte, error)
}
