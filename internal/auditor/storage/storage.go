package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/job-status-service/internal/auditor/domain"
	"github.com/cuongbtq/job-status-service/internal/events"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS job_events (
		id          BIGSERIAL PRIMARY KEY,
		job_id      TEXT        NOT NULL UNIQUE,
		from_status TEXT        NOT NULL,
		to_status   TEXT        NOT NULL,
		elapsed_ms  BIGINT      NOT NULL,
		timeout_ms  BIGINT      NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// jobEvent is the row form of a transition event
type jobEvent struct {
	JobID      string    `db:"job_id"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ElapsedMs  int64     `db:"elapsed_ms"`
	TimeoutMs  int64     `db:"timeout_ms"`
	OccurredAt time.Time `db:"occurred_at"`
}

// Storage appends transition events to the job_events table
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the job_events table when it does not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create job_events table: %w", err)
	}
	return nil
}

// RecordTransition stores a transition event. A job leaves pending only
// once, so a redelivered event for an already recorded job is ignored.
func (s *Storage) RecordTransition(ctx context.Context, event events.TransitionEvent) error {
	query := `
		INSERT INTO job_events (
			job_id, from_status, to_status, elapsed_ms, timeout_ms, occurred_at
		) VALUES (
			:job_id, :from_status, :to_status, :elapsed_ms, :timeout_ms, :occurred_at
		)
		ON CONFLICT (job_id) DO NOTHING
	`

	row := jobEvent{
		JobID:      event.JobID,
		FromStatus: event.From,
		ToStatus:   event.To,
		ElapsedMs:  event.ElapsedMs,
		TimeoutMs:  event.TimeoutMs,
		OccurredAt: event.OccurredAt,
	}

	result, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return classify(fmt.Errorf("failed to record transition: %w", err))
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		s.logger.Warn("Transition already recorded",
			slog.String("job_id", event.JobID),
		)
		return nil
	}

	s.logger.Info("Transition recorded",
		slog.String("job_id", event.JobID),
		slog.String("to", event.To),
	)

	return nil
}

// classify marks every failure as retryable except data errors and
// integrity violations, which would fail again on redelivery
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return err
		}
	}
	return domain.NewRetryableError(err)
}
