// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net"
	"sync"
	"time"

	"github.com/absmach/workertraces/pkg/errors"
	"github.com/absmach/workertraces/worker"
)

const (
	// DefWriteTimeout bounds a single response write to a client.
	DefWriteTimeout = 10 * time.Second
	// DefWriteQueue is the number of responses buffered per client.
	DefWriteQueue = 64
)

var (
	// ErrSlowClient indicates that a client stopped reading its responses.
	ErrSlowClient = errors.New("client is not reading responses")

	// ErrConnClosed indicates a write to a closed client connection.
	ErrConnClosed = errors.New("client connection closed")
)

// Config bounds how responses are written back to clients.
type Config struct {
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	WriteQueue   int           `env:"WRITE_QUEUE"   envDefault:"64"`
}

func (cfg Config) withDefaults() Config {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefWriteTimeout
	}
	if cfg.WriteQueue < 1 {
		cfg.WriteQueue = DefWriteQueue
	}

	return cfg
}

var _ worker.Conn = (*outbox)(nil)

// writeFunc writes one response and must give up at deadline.
type writeFunc func(data []byte, deadline time.Time) error

// outbox queues the responses of one client and writes them from its own
// goroutine, so Write never waits on the peer. A full queue or a failed
// write closes the client.
type outbox struct {
	id      string
	timeout time.Duration
	queue   chan []byte
	done    chan struct{}
	write   writeFunc
	close   func() error
	once    sync.Once
	err     error
}

func newOutbox(id string, cfg Config, write writeFunc, closeFn func() error) *outbox {
	cfg = cfg.withDefaults()
	o := &outbox{
		id:      id,
		timeout: cfg.WriteTimeout,
		queue:   make(chan []byte, cfg.WriteQueue),
		done:    make(chan struct{}),
		write:   write,
		close:   closeFn,
	}
	go o.run()

	return o
}

// newConn returns the outbox of a raw socket client.
func newConn(id string, cfg Config, nc net.Conn) *outbox {
	write := func(data []byte, deadline time.Time) error {
		if err := nc.SetWriteDeadline(deadline); err != nil {
			return err
		}
		_, err := nc.Write(data)

		return err
	}

	return newOutbox(id, cfg, write, nc.Close)
}

func (o *outbox) run() {
	for {
		select {
		case <-o.done:
			return
		case data := <-o.queue:
			if err := o.write(data, time.Now().Add(o.timeout)); err != nil {
				o.Close()
				return
			}
		}
	}
}

func (o *outbox) ID() string {
	return o.id
}

func (o *outbox) Write(data []byte) error {
	select {
	case <-o.done:
		return ErrConnClosed
	default:
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case o.queue <- buf:
		return nil
	case <-o.done:
		return ErrConnClosed
	default:
		o.Close()
		return ErrSlowClient
	}
}

func (o *outbox) Close() error {
	o.once.Do(func() {
		close(o.done)
		o.err = o.close()
	})

	return o.err
}
