// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package worker

import "sync"

// Registry maps request ids to the connections waiting for them.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
	}
}

// Register binds id to conn, replacing any previous binding.
func (r *Registry) Register(id string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[id] = conn
}

// Lookup returns the connection bound to id.
func (r *Registry) Lookup(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]

	return conn, ok
}

// RemoveConn removes every binding to conn and returns how many were removed.
func (r *Registry) RemoveConn(conn Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, c := range r.conns {
		if c.ID() == conn.ID() {
			delete(r.conns, id)
			removed++
		}
	}

	return removed
}

// Len returns the number of bound ids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
