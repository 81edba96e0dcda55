// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package memory holds an in-process implementation of the Publisher and
// PubSub interfaces. It is the default bus of a single worker process:
// every subscription owns a bounded queue drained by one goroutine, so a
// handler never runs concurrently with itself, and every published message
// is handed to one subscriber of its topic in round-robin order.
package memory
