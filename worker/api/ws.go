// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/absmach/workertraces/pkg/ulid"
	"github.com/absmach/workertraces/worker"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// newWSConn returns the outbox of a WebSocket client. Each response goes out
// as a single text frame. Frames delimit responses, so the trailing newline
// is dropped.
func newWSConn(id string, cfg Config, ws *websocket.Conn) *outbox {
	write := func(data []byte, deadline time.Time) error {
		if err := ws.SetWriteDeadline(deadline); err != nil {
			return err
		}

		return ws.WriteMessage(websocket.TextMessage, bytes.TrimRight(data, "\n"))
	}

	return newOutbox(id, cfg, write, ws.Close)
}

type wsHandler struct {
	svc    worker.Service
	cfg    Config
	logger *slog.Logger
}

// newWSHandler returns the handler for worker clients connecting over
// WebSocket. Each text frame carries one JSON encoded request.
func newWSHandler(svc worker.Service, cfg Config, logger *slog.Logger) http.Handler {
	return &wsHandler{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection to websocket", slog.Any("error", err))
		return
	}
	id, err := ulid.New().ID()
	if err != nil {
		h.logger.Error("Failed to generate connection id", slog.Any("error", err))
		ws.Close()
		return
	}
	c := newWSConn(id, h.cfg, ws)

	ctx := r.Context()
	defer func() {
		_ = h.svc.Disconnect(context.WithoutCancel(ctx), c)
		c.Close()
	}()

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("Failed to read request", slog.String("conn_id", id), slog.Any("error", err))
				return
			}
			h.logger.Debug("Client disconnected", slog.String("conn_id", id))
			return
		}

		var req worker.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			// Frames keep the stream in sync, so only this request is dropped.
			h.logger.Warn("Invalid request format", slog.String("conn_id", id), slog.Any("error", err))
			continue
		}
		dispatch(ctx, h.svc, c, req)
	}
}
