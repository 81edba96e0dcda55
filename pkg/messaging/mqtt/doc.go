// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mqtt holds the implementation of the Publisher and PubSub
// interfaces for MQTT brokers. Every topic lives under a common prefix and
// subscribers join the shared subscription group named after the topic, so
// a message reaches a single subscriber across all connected processes.
// The broker must support shared subscriptions ($share).
package mqtt
