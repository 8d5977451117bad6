package domain

import "time"

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal reports whether the status can no longer change
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s Status) String() string {
	return string(s)
}

// Job is the record tracked for every created job.
// ID and CreatedAt never change after creation.
type Job struct {
	ID        string
	Status    Status
	CreatedAt time.Time
	Timeout   time.Duration
}

// Transition describes a status change committed during resolution
type Transition struct {
	JobID      string
	From       Status
	To         Status
	Elapsed    time.Duration
	Timeout    time.Duration
	OccurredAt time.Time
}
