package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirb101/three-sided-sub001/internal/logger"
)

func testPublisher(t *testing.T) (*Publisher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewPublisher(client, "automation:events:test", logger.NewNop()), client
}

func TestPublish(t *testing.T) {
	pub, client := testPublisher(t)
	runID := uuid.New()

	err := pub.Publish(context.Background(), RunEvent(runID, "started", "trigger=scheduled"))
	require.NoError(t, err)

	entries, err := client.XRange(context.Background(), "automation:events:test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["event"].(string)), &got))
	assert.Equal(t, KindRun, got.Kind)
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, "started", got.Status)
	assert.Equal(t, "trigger=scheduled", got.Message)
	assert.NotEqual(t, uuid.Nil, got.EventID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestPublishStepEvent(t *testing.T) {
	pub, client := testPublisher(t)
	runID := uuid.New()

	err := pub.Publish(context.Background(), StepEvent(runID, "fetch_content", "failure", "connection timeout"))
	require.NoError(t, err)

	entries, err := client.XRange(context.Background(), "automation:events:test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["event"].(string)), &got))
	assert.Equal(t, KindStep, got.Kind)
	assert.Equal(t, "fetch_content", got.Step)
	assert.Equal(t, "failure", got.Outcome)
	assert.Empty(t, got.Status)
}

func TestPublishAsync(t *testing.T) {
	pub, client := testPublisher(t)

	pub.PublishAsync(RunEvent(uuid.New(), "success", "published card"))

	require.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), "automation:events:test").Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublishOrdering(t *testing.T) {
	pub, client := testPublisher(t)
	runID := uuid.New()

	for _, status := range []string{"started", "step_success", "success"} {
		require.NoError(t, pub.Publish(context.Background(), RunEvent(runID, status, "")))
	}

	entries, err := client.XRange(context.Background(), "automation:events:test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var statuses []string
	for _, e := range entries {
		var got Event
		require.NoError(t, json.Unmarshal([]byte(e.Values["event"].(string)), &got))
		statuses = append(statuses, got.Status)
	}
	assert.Equal(t, []string{"started", "step_success", "success"}, statuses)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var pub *Publisher

	assert.NoError(t, pub.Publish(context.Background(), RunEvent(uuid.New(), "started", "")))
	assert.NotPanics(t, func() { pub.PublishAsync(RunEvent(uuid.New(), "started", "")) })
	assert.Nil(t, NewPublisher(nil, "stream", logger.NewNop()))
}
