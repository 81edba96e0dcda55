// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package nats holds the implementation of the Publisher and PubSub
// interfaces for NATS core. Every topic is a NATS subject under a common
// prefix and every subscriber joins the queue group named after the
// topic, so a message reaches exactly one subscriber across all
// connected processes. Publisher is created alongside PubSub because
// the subscriber side only adds bookkeeping the publisher does not need.
package nats
