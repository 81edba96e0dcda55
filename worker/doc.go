// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package worker contains the domain concepts of the worker service:
// requests read from TCP connections are dispatched over the message bus
// to a responder, and the responder's answers are written back to the
// connection that asked for them.
package worker
