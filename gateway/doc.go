// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package gateway contains the HTTP gateway service. The gateway forwards
// each request to the worker over TCP and returns the worker's answer.
package gateway
