// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"errors"
	"time"

	"github.com/absmach/workertraces/pkg/messaging"
)

// ErrInvalidType is returned when the provided value is not of the expected type.
var ErrInvalidType = errors.New("invalid type")

// Prefix sets the topic prefix for the publisher or subscriber.
func Prefix(prefix string) messaging.Option {
	return func(val interface{}) error {
		switch v := val.(type) {
		case *publisher:
			v.prefix = prefix
		case *pubsub:
			v.prefix = prefix
		default:
			return ErrInvalidType
		}

		return nil
	}
}

// Timeout bounds every broker operation of the publisher or subscriber.
func Timeout(timeout time.Duration) messaging.Option {
	return func(val interface{}) error {
		switch v := val.(type) {
		case *publisher:
			v.timeout = timeout
		case *pubsub:
			v.timeout = timeout
		default:
			return ErrInvalidType
		}

		return nil
	}
}
