// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package rabbitmq holds the implementation of the Publisher and PubSub
// interfaces for RabbitMQ. Messages are published to a durable topic
// exchange. Each topic is backed by one shared queue which all of its
// subscribers consume from, so RabbitMQ hands every message to exactly
// one of them.
package rabbitmq
