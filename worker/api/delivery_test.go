// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/absmach/workertraces/logger"
	"github.com/absmach/workertraces/pkg/messaging"
	"github.com/absmach/workertraces/pkg/messaging/handler"
	"github.com/absmach/workertraces/pkg/messaging/memory"
	"github.com/absmach/workertraces/worker"
	"github.com/absmach/workertraces/worker/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWorker wires a worker the way the service binary does, with a single
// goroutine delivering answers.
func newWorker(t *testing.T) worker.Service {
	lg := logger.NewMock()
	ps, err := memory.NewPubSub(lg)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	t.Cleanup(func() { ps.Close() })

	svc := worker.NewService(worker.NewRegistry(), ps, worker.RequestTopic, "")
	err = ps.Subscribe(context.Background(), messaging.SubscriberConfig{
		ID:      "responder",
		Topic:   worker.RequestTopic,
		Handler: worker.NewResponder(ps, worker.AnswerTopic, ""),
	})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	err = ps.Subscribe(context.Background(), messaging.SubscriberConfig{
		ID:      "answer",
		Topic:   worker.AnswerTopic,
		Handler: handler.NewWorker(worker.NewAnswerHandler(svc), lg, 1, 64),
	})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	return svc
}

func connect(svc worker.Service, cfg api.Config) net.Conn {
	server, client := net.Pipe()
	go api.NewConnHandler(svc, cfg, logger.NewMock()).Handle(context.Background(), server)

	return client
}

func TestSlowClientDoesNotBlockOthers(t *testing.T) {
	svc := newWorker(t)
	cfg := api.Config{WriteTimeout: 200 * time.Millisecond, WriteQueue: 1}

	slow := connect(svc, cfg)
	defer slow.Close()
	fast := connect(svc, cfg)
	defer fast.Close()

	// The slow client sends requests and never reads the answers.
	for i := 0; i < 4; i++ {
		_, err := io.WriteString(slow, fmt.Sprintf("{\"id\":\"slow-%d\",\"request\":\"/api\"}\n", i))
		require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	}

	_, err := io.WriteString(fast, "{\"id\":\"fast\",\"request\":\"/api\"}\n")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	err = fast.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	line, err := bufio.NewReader(fast).ReadBytes('\n')
	require.Nil(t, err, fmt.Sprintf("fast client must get its answer: %s", err))

	var res worker.Response
	err = json.Unmarshal(line, &res)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, worker.Response{ID: "fast", Response: worker.DefGreeting}, res)

	// The worker gives up on the slow client and closes it.
	assert.Eventually(t, func() bool {
		_ = slow.SetWriteDeadline(time.Now().Add(50 * time.Millisecond))
		_, err := io.WriteString(slow, " ")
		return err == io.ErrClosedPipe
	}, 3*time.Second, 20*time.Millisecond, "slow client must be disconnected")
}
