// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"time"

	"github.com/absmach/workertraces/pkg/events"
	"github.com/absmach/workertraces/worker"
)

const (
	workerPrefix     = "worker."
	workerDispatch   = workerPrefix + "dispatch"
	workerDeliver    = workerPrefix + "deliver"
	workerDisconnect = workerPrefix + "disconnect"
)

var (
	_ events.Event = (*dispatchEvent)(nil)
	_ events.Event = (*deliverEvent)(nil)
	_ events.Event = (*disconnectEvent)(nil)
)

type dispatchEvent struct {
	connID     string
	req        worker.Request
	occurredAt time.Time
}

func (de dispatchEvent) Encode() (map[string]interface{}, error) {
	val := map[string]interface{}{
		"operation":   workerDispatch,
		"conn_id":     de.connID,
		"id":          de.req.ID,
		"occurred_at": de.occurredAt.UnixNano(),
	}
	if de.req.Request != "" {
		val["request"] = de.req.Request
	}

	return val, nil
}

type deliverEvent struct {
	res        worker.Response
	occurredAt time.Time
}

func (de deliverEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		"operation":   workerDeliver,
		"id":          de.res.ID,
		"response":    de.res.Response,
		"occurred_at": de.occurredAt.UnixNano(),
	}, nil
}

type disconnectEvent struct {
	connID     string
	occurredAt time.Time
}

func (de disconnectEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		"operation":   workerDisconnect,
		"conn_id":     de.connID,
		"occurred_at": de.occurredAt.UnixNano(),
	}, nil
}
