// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package api contains the worker TCP connection handler and its HTTP
// health and metrics endpoints.
package api
