// Package events publishes automation audit events to Redis Streams for
// downstream consumers such as the platform's activity feed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/amirb101/three-sided-sub001/internal/logger"
)

// DefaultStream is the Redis stream automation events are appended to.
const DefaultStream = "automation:events"

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// Event kinds.
const (
	KindRun  = "run"
	KindStep = "step"
)

// Event is one automation audit event on the stream.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	Kind      string    `json:"kind"`
	RunID     uuid.UUID `json:"run_id"`
	Status    string    `json:"status,omitempty"`
	Step      string    `json:"step,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RunEvent builds a run lifecycle event.
func RunEvent(runID uuid.UUID, status, message string) Event {
	return Event{Kind: KindRun, RunID: runID, Status: status, Message: message}
}

// StepEvent builds a step result event.
func StepEvent(runID uuid.UUID, step, outcome, message string) Event {
	return Event{Kind: KindStep, RunID: runID, Step: step, Outcome: outcome, Message: message}
}

// Publisher publishes automation events to Redis Streams.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
}

// NewPublisher creates a new event publisher.
// Returns nil if client is nil; a nil Publisher is safe and publishes nothing.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = DefaultStream
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{
		client: client,
		stream: stream,
		log:    log,
	}
}

// Publish sends an event to the Redis stream.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil // No-op if publisher not configured
	}

	// Ensure event has ID and timestamp
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event": string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		p.log.Error("Failed to publish event",
			logger.String("kind", event.Kind),
			logger.String("run_id", event.RunID.String()),
			logger.Error(publishErr),
		)
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published automation event",
		logger.String("kind", event.Kind),
		logger.String("run_id", event.RunID.String()),
		logger.String("stream_id", result.Val()),
	)

	return nil
}

// PublishAsync publishes an event asynchronously.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(event Event) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				logger.String("kind", event.Kind),
				logger.String("run_id", event.RunID.String()),
				logger.Error(err),
			)
		}
	}()
}
