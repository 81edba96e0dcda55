// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package events provides the worker service decorator that publishes
// lifecycle events to the event store.
package events
