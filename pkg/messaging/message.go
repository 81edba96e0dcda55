// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/propagation"
)

// Message is the envelope travelling over the bus.
type Message struct {
	ID        string            `json:"id,omitempty"`
	Topic     string            `json:"topic,omitempty"`
	Publisher string            `json:"publisher,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Payload   []byte            `json:"payload,omitempty"`
	Created   int64             `json:"created,omitempty"`
}

// Clone returns a deep copy of the message.
func (msg *Message) Clone() *Message {
	cp := *msg
	if msg.Headers != nil {
		cp.Headers = make(map[string]string, len(msg.Headers))
		for k, v := range msg.Headers {
			cp.Headers[k] = v
		}
	}
	if msg.Payload != nil {
		cp.Payload = append([]byte(nil), msg.Payload...)
	}

	return &cp
}

// Stamp fills topic and creation time when they are missing.
func (msg *Message) Stamp(topic string) {
	if msg.Topic == "" {
		msg.Topic = topic
	}
	if msg.Created == 0 {
		msg.Created = time.Now().UnixNano()
	}
}

// Encode marshals the message for brokers that carry opaque bytes.
func Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode unmarshals a message produced by Encode.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

var _ propagation.TextMapCarrier = (*HeaderCarrier)(nil)

// HeaderCarrier adapts message headers to the OpenTelemetry carrier API.
type HeaderCarrier struct {
	msg *Message
}

// NewHeaderCarrier returns carrier reading and writing msg headers.
func NewHeaderCarrier(msg *Message) HeaderCarrier {
	return HeaderCarrier{msg: msg}
}

func (hc HeaderCarrier) Get(key string) string {
	if hc.msg.Headers == nil {
		return ""
	}

	return hc.msg.Headers[key]
}

func (hc HeaderCarrier) Set(key, value string) {
	if hc.msg.Headers == nil {
		hc.msg.Headers = make(map[string]string)
	}
	hc.msg.Headers[key] = value
}

func (hc HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(hc.msg.Headers))
	for k := range hc.msg.Headers {
		keys = append(keys, k)
	}

	return keys
}
