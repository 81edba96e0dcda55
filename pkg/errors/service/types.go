// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package service

import "github.com/absmach/workertraces/pkg/errors"

// Wrapper for Service errors.
var (
	// ErrMalformedEntity indicates a malformed entity specification.
	ErrMalformedEntity = errors.New("malformed entity specification")

	// ErrNotFound indicates a non-existent entity request.
	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable indicates that a downstream peer could not be reached.
	ErrUnavailable = errors.New("downstream service unavailable")

	// ErrTimeout indicates that a downstream peer did not answer in time.
	ErrTimeout = errors.New("downstream service timed out")

	// ErrUniqueID indicates an error in generating a unique ID.
	ErrUniqueID = errors.New("failed to generate unique identifier")
)
