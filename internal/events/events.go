// Package events carries job status transitions from the API service to
// downstream consumers such as the audit service.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
)

// ContentType is the content type of encoded transition events
const ContentType = "application/json"

// EventTypeTransition identifies a job status transition event
const EventTypeTransition = "job.transition"

// ErrInvalidEvent is returned when an event body cannot be decoded or is incomplete
var ErrInvalidEvent = errors.New("invalid transition event")

// TransitionEvent is the wire form of a domain.Transition
type TransitionEvent struct {
	Type       string    `json:"type"`
	JobID      string    `json:"job_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	TimeoutMs  int64     `json:"timeout_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTransitionEvent converts a committed transition into its wire form
func NewTransitionEvent(t domain.Transition) TransitionEvent {
	return TransitionEvent{
		Type:       EventTypeTransition,
		JobID:      t.JobID,
		From:       t.From.String(),
		To:         t.To.String(),
		ElapsedMs:  t.Elapsed.Milliseconds(),
		TimeoutMs:  t.Timeout.Milliseconds(),
		OccurredAt: t.OccurredAt.UTC(),
	}
}

// Decode parses and validates an encoded transition event
func Decode(body []byte) (TransitionEvent, error) {
	var event TransitionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return TransitionEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if event.Type != EventTypeTransition {
		return TransitionEvent{}, fmt.Errorf("%w: unexpected type %q", ErrInvalidEvent, event.Type)
	}
	if event.JobID == "" {
		return TransitionEvent{}, fmt.Errorf("%w: job_id is required", ErrInvalidEvent)
	}
	if to := domain.Status(event.To); !to.IsTerminal() {
		return TransitionEvent{}, fmt.Errorf("%w: target status %q is not terminal", ErrInvalidEvent, event.To)
	}

	return event, nil
}

// Publisher delivers transition events
type Publisher interface {
	PublishTransition(ctx context.Context, event TransitionEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishTransition(context.Context, TransitionEvent) error { return nil }

// messagePublisher is satisfied by *rabbitmq.Client
type messagePublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// BrokerPublisher publishes transition events as JSON messages
type BrokerPublisher struct {
	client messagePublisher
	logger *slog.Logger
}

// NewBrokerPublisher creates a BrokerPublisher on top of a message broker client
func NewBrokerPublisher(client messagePublisher, logger *slog.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		client: client,
		logger: logger,
	}
}

// PublishTransition encodes and publishes a single event
func (p *BrokerPublisher) PublishTransition(ctx context.Context, event TransitionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode transition event: %w", err)
	}

	if err := p.client.PublishWithRetry(ctx, body, ContentType); err != nil {
		return fmt.Errorf("failed to publish transition event: %w", err)
	}

	p.logger.Debug("Transition event published",
		slog.String("job_id", event.JobID),
		slog.String("to", event.To),
	)

	return nil
}
