// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"

	"github.com/absmach/workertraces/pkg/errors"
)

const (
	// RequestTopic is the bus address requests are dispatched to.
	RequestTopic = "vertx.worker.address"

	// AnswerTopic is the bus address responses are sent to.
	AnswerTopic = "vertx.worker.address.answer"

	// ReplyToHeader names the message header carrying the topic the
	// response to a request must be sent to.
	ReplyToHeader = "reply_to"

	// DefGreeting is the default response text.
	DefGreeting = "Hello world!"
)

var (
	// ErrMissingID indicates a request without an id.
	ErrMissingID = errors.New("missing request id")

	// ErrConnNotFound indicates that no connection waits for the response id.
	ErrConnNotFound = errors.New("socket not found")

	// ErrMalformedRequest indicates a request that could not be decoded.
	ErrMalformedRequest = errors.New("invalid request format")

	// ErrMalformedResponse indicates a response that could not be decoded.
	ErrMalformedResponse = errors.New("invalid response format")
)

// Request is a single request read from a client connection.
type Request struct {
	ID      string            `json:"id"`
	Request string            `json:"request"`
	Trace   map[string]string `json:"trace,omitempty"`
}

// Response is the answer to a Request with the same ID.
type Response struct {
	Response string `json:"response"`
	ID       string `json:"id"`
}

// InstanceAnswerTopic returns the answer topic of the worker instance
// instanceID. Each instance consumes only its own answers, since only that
// instance holds the connections waiting for them.
func InstanceAnswerTopic(instanceID string) string {
	if instanceID == "" {
		return AnswerTopic
	}

	return AnswerTopic + "." + instanceID
}

// Conn is a client connection responses are written to.
//
//go:generate mockery --name Conn --output=./mocks --filename conn.go --quiet --note "Copyright (c) Abstract Machines"
type Conn interface {
	// ID returns the unique identifier of the connection.
	ID() string

	// Write writes data to the connection.
	Write(data []byte) error

	// Close closes the connection.
	Close() error
}

// Service specifies an API that must be fulfilled by the domain service
// implementation, and all of its decorators (e.g. logging & metrics).
//
//go:generate mockery --name Service --output=./mocks --filename service.go --quiet --note "Copyright (c) Abstract Machines"
type Service interface {
	// Dispatch remembers conn as the origin of req and sends req to the responder.
	Dispatch(ctx context.Context, conn Conn, req Request) error

	// Deliver writes res to the connection that sent the request with the same id.
	Deliver(ctx context.Context, res Response) error

	// Disconnect forgets every request id bound to conn.
	Disconnect(ctx context.Context, conn Conn) error
}
