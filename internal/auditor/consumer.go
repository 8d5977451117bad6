package auditor

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/job-status-service/internal/events"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// dispatch decodes deliveries and hands valid events to the worker pool
func (a *Auditor) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, messages chan<- message) {
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				a.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			event, err := events.Decode(delivery.Body)
			if err == nil {
				if _, parseErr := uuid.Parse(event.JobID); parseErr != nil {
					err = parseErr
				}
			}
			if err != nil {
				a.logger.Error("Discarding invalid transition event",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// malformed events would fail again, so they are not requeued
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					a.logger.Error("Failed to NACK invalid event",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case messages <- message{event: event, delivery: delivery}:
			case <-ctx.Done():
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					a.logger.Error("Failed to NACK event on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
