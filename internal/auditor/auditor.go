// Package auditor consumes job status transition events from RabbitMQ
// and records them in PostgreSQL.
package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/job-status-service/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// DeliverySource is satisfied by *rabbitmq.Client
type DeliverySource interface {
	Consume(consumerTag string, prefetchCount int) (<-chan amqp.Delivery, error)
}

// Recorder persists transition events
type Recorder interface {
	RecordTransition(ctx context.Context, event events.TransitionEvent) error
}

// Config holds auditor configuration
type Config struct {
	Logger        *slog.Logger
	Source        DeliverySource
	Recorder      Recorder
	ConsumerTag   string
	Concurrency   int
	PrefetchCount int
	RecordTimeout time.Duration
}

// Auditor fans transition events out to a pool of recording goroutines
type Auditor struct {
	logger        *slog.Logger
	source        DeliverySource
	recorder      Recorder
	consumerTag   string
	concurrency   int
	prefetchCount int
	recordTimeout time.Duration
}

// message pairs a decoded event with the delivery that carried it
type message struct {
	event    events.TransitionEvent
	delivery amqp.Delivery
}

// NewAuditor creates a new auditor instance
func NewAuditor(cfg *Config) *Auditor {
	a := &Auditor{
		logger:        cfg.Logger,
		source:        cfg.Source,
		recorder:      cfg.Recorder,
		consumerTag:   cfg.ConsumerTag,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		recordTimeout: cfg.RecordTimeout,
	}
	if a.concurrency <= 0 {
		a.concurrency = 1
	}
	if a.prefetchCount <= 0 {
		a.prefetchCount = a.concurrency
	}
	if a.recordTimeout <= 0 {
		a.recordTimeout = 5 * time.Second
	}
	return a
}

// Start consumes events until ctx is canceled or the delivery channel closes
func (a *Auditor) Start(ctx context.Context) error {
	deliveries, err := a.source.Consume(a.consumerTag, a.prefetchCount)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	a.logger.Info("Starting auditor",
		slog.String("consumer_tag", a.consumerTag),
		slog.Int("concurrency", a.concurrency),
		slog.Int("prefetch_count", a.prefetchCount),
	)

	g, gctx := errgroup.WithContext(ctx)
	messages := make(chan message)

	g.Go(func() error {
		defer close(messages)
		a.dispatch(gctx, deliveries, messages)
		return nil
	})

	for i := 0; i < a.concurrency; i++ {
		i := i
		g.Go(func() error {
			a.workerLoop(gctx, i, messages)
			return nil
		})
	}

	err = g.Wait()
	a.logger.Info("Auditor stopped")
	return err
}
