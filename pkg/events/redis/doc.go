// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package redis publishes events to Redis streams.
package redis
