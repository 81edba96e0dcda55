// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/absmach/workertraces/pkg/server"
)

const (
	tcpProtocol = "tcp"
	tlsProtocol = "tls"
)

// Handler serves a single accepted connection. Handle owns conn and must
// return once it is closed or ctx is done.
type Handler interface {
	Handle(ctx context.Context, conn net.Conn)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, conn net.Conn)

func (f HandlerFunc) Handle(ctx context.Context, conn net.Conn) {
	f(ctx, conn)
}

type tcpServer struct {
	server.BaseServer
	handler  Handler
	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

var _ server.Server = (*tcpServer)(nil)

func NewServer(ctx context.Context, cancel context.CancelFunc, name string, config server.Config, handler Handler, logger *slog.Logger) server.Server {
	return &tcpServer{
		BaseServer: server.NewBaseServer(ctx, cancel, name, config, logger),
		handler:    handler,
		conns:      make(map[net.Conn]struct{}),
	}
}

func (s *tcpServer) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve(listener)
	}()

	select {
	case <-s.Ctx.Done():
		return s.Stop()
	case err := <-errCh:
		return err
	}
}

func (s *tcpServer) listen() (net.Listener, error) {
	s.Protocol = tcpProtocol
	if !s.Config.TLS() {
		listener, err := net.Listen("tcp", s.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", s.Address, err)
		}
		s.Logger.Info(fmt.Sprintf("%s service %s server listening at %s without TLS", s.Name, s.Protocol, s.Address))

		return listener, nil
	}

	certificate, err := tls.LoadX509KeyPair(s.Config.CertFile, s.Config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s certificates: %w", s.Name, err)
	}
	s.Protocol = tlsProtocol
	listener, err := tls.Listen("tcp", s.Address, &tls.Config{Certificates: []tls.Certificate{certificate}})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.Address, err)
	}
	s.Logger.Info(fmt.Sprintf("%s service %s server listening at %s with TLS cert %s and key %s", s.Name, s.Protocol, s.Address, s.Config.CertFile, s.Config.KeyFile))

	return listener, nil
}

func (s *tcpServer) serve(listener net.Listener) error {
	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				delay = backoff(delay)
				s.Logger.Warn(fmt.Sprintf("%s service %s server accept error: %s; retrying in %v", s.Name, s.Protocol, err, delay))
				time.Sleep(delay)
				continue
			}
			return err
		}
		delay = 0

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		go func() {
			defer s.untrack(conn)
			s.handler.Handle(s.Ctx, conn)
		}()
	}
}

func backoff(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}
	if delay *= 2; delay > time.Second {
		return time.Second
	}

	return delay
}

// track registers conn unless the server is stopping.
func (s *tcpServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)

	return true
}

func (s *tcpServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()

	conn.Close()
	s.wg.Done()
}

// Stop closes the listener and every live connection, then waits for the
// connection handlers to return.
func (s *tcpServer) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.stop()
	})

	return s.stopErr
}

func (s *tcpServer) stop() error {
	defer s.Cancel()

	s.mu.Lock()
	listener := s.listener
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	var errs []error
	if listener != nil {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	for conn := range conns {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(server.StopWaitTime):
		errs = append(errs, errors.New("timed out waiting for connection handlers"))
	}

	if err := errors.Join(errs...); err != nil {
		s.Logger.Error(fmt.Sprintf("%s service %s server error occurred during shutdown at %s: %s", s.Name, s.Protocol, s.Address, err))
		return fmt.Errorf("%s service %s server error occurred during shutdown at %s: %w", s.Name, s.Protocol, s.Address, err)
	}
	s.Logger.Info(fmt.Sprintf("%s %s service shutdown of tcp at %s", s.Name, s.Protocol, s.Address))

	return nil
}
