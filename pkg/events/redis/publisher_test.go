// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package redis_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/absmach/workertraces/pkg/events/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	streamName = "workertraces.eventstest"
	errFailed  = errors.New("failed")
	ctx        = context.TODO()
)

type testEvent struct {
	Data map[string]interface{}
	err  error
}

func (te testEvent) Encode() (map[string]interface{}, error) {
	if te.err != nil {
		return nil, te.err
	}
	if te.Data == nil {
		return nil, nil
	}
	data := make(map[string]interface{})
	for k, v := range te.Data {
		switch v.(type) {
		case string:
			data[k] = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			data[k] = string(b)
		}
	}

	return data, nil
}

func TestPublish(t *testing.T) {
	err := redisClient.FlushAll(ctx).Err()
	require.Nil(t, err, fmt.Sprintf("got unexpected error on flushing redis: %s", err))

	_, err = redis.NewPublisher(ctx, "http://invaliurl.com", streamName, time.Second)
	assert.NotNil(t, err, "expected error on creating event store with invalid url")

	publisher, err := redis.NewPublisher(ctx, redisURL, streamName, time.Second)
	require.Nil(t, err, fmt.Sprintf("got unexpected error on creating event store: %s", err))
	defer publisher.Close()

	cases := []struct {
		desc  string
		event testEvent
		err   error
	}{
		{
			desc: "publish dispatch event",
			event: testEvent{Data: map[string]interface{}{
				"operation":  "worker.dispatch",
				"request_id": "1",
				"conn_id":    "01HF7Y6N0Z7Q2J6ZQ5X3S4T5V6",
			}},
		},
		{
			desc:  "publish event without values",
			event: testEvent{},
		},
		{
			desc: "publish event with nested value",
			event: testEvent{Data: map[string]interface{}{
				"operation": "worker.deliver",
				"response":  map[string]string{"id": "1", "response": "Hello world!"},
			}},
		},
		{
			desc: "publish event with unsupported value",
			event: testEvent{Data: map[string]interface{}{
				"operation": "worker.deliver",
				"response":  make(chan int),
			}},
			err: fmt.Errorf("json: unsupported type: chan int"),
		},
		{
			desc:  "publish event failing to encode",
			event: testEvent{err: errFailed},
			err:   errFailed,
		},
	}

	published := 0
	for _, tc := range cases {
		err := publisher.Publish(ctx, tc.event)
		if tc.err != nil {
			assert.ErrorContains(t, err, tc.err.Error(), fmt.Sprintf("%s: expected error %s", tc.desc, tc.err))
			continue
		}
		require.Nil(t, err, fmt.Sprintf("%s: got unexpected error: %s", tc.desc, err))
		published++

		msgs, err := redisClient.XRevRangeN(ctx, streamName, "+", "-", 1).Result()
		require.Nil(t, err, fmt.Sprintf("%s: got unexpected error reading stream: %s", tc.desc, err))
		require.Len(t, msgs, 1, tc.desc)
		received := msgs[0].Values

		oa, err := strconv.ParseInt(received["occurred_at"].(string), 10, 64)
		assert.Nil(t, err, fmt.Sprintf("%s: got unexpected error: %s", tc.desc, err))
		assert.WithinRange(t, time.Unix(0, oa), time.Now().Add(-time.Second), time.Now().Add(time.Second), tc.desc)

		expected, err := tc.event.Encode()
		require.Nil(t, err, fmt.Sprintf("%s: got unexpected error: %s", tc.desc, err))
		for k, v := range expected {
			assert.Equal(t, v, received[k], fmt.Sprintf("%s: expected %s=%v got %v", tc.desc, k, v, received[k]))
		}
	}

	n, err := redisClient.XLen(ctx, streamName).Result()
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	assert.Equal(t, int64(published), n)
}

func TestUnavailablePublish(t *testing.T) {
	err := redisClient.FlushAll(ctx).Err()
	require.Nil(t, err, fmt.Sprintf("got unexpected error on flushing redis: %s", err))

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	publisher, err := redis.NewPublisher(fctx, redisURL, streamName, 100*time.Millisecond)
	require.Nil(t, err, fmt.Sprintf("got unexpected error on creating event store: %s", err))
	defer publisher.Close()

	err = pool.Client.PauseContainer(container.Container.ID)
	require.Nil(t, err, fmt.Sprintf("got unexpected error on pausing container: %s", err))

	const n = 10
	for i := 0; i < n; i++ {
		event := testEvent{Data: map[string]interface{}{"operation": "worker.disconnect", "seq": strconv.Itoa(i)}}
		err := publisher.Publish(ctx, event)
		assert.Nil(t, err, fmt.Sprintf("events must be buffered while redis is unavailable: %s", err))
	}

	err = pool.Client.UnpauseContainer(container.Container.ID)
	require.Nil(t, err, fmt.Sprintf("got unexpected error on unpausing container: %s", err))

	assert.Eventually(t, func() bool {
		l, err := redisClient.XLen(ctx, streamName).Result()
		return err == nil && l == n
	}, 10*time.Second, 100*time.Millisecond, "buffered events must be flushed once redis is back")
}
