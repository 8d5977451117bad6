package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
	"github.com/google/uuid"
)

// Config holds the collaborators of a MemoryStore
type Config struct {
	Policy *Policy
	Logger *slog.Logger
	// Now defaults to time.Now
	Now func() time.Time
	// NewID defaults to a random (version 4) UUID
	NewID func() string
}

// record guards a single job so that resolution and timeout updates
// on one job never block operations on another
type record struct {
	mu  sync.Mutex
	job domain.Job
}

// MemoryStore keeps every job in process memory for the lifetime of the process
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[string]*record
	policy *Policy
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewStorage creates a new MemoryStore
func NewStorage(cfg *Config) (*MemoryStore, error) {
	if cfg == nil || cfg.Policy == nil {
		return nil, errors.New("storage: policy is required")
	}

	s := &MemoryStore{
		jobs:   make(map[string]*record),
		policy: cfg.Policy,
		logger: cfg.Logger,
		now:    cfg.Now,
		newID:  cfg.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	return s, nil
}

// CreateJob registers a new pending job using the current default timeout
func (s *MemoryStore) CreateJob() domain.Job {
	rec := &record{
		job: domain.Job{
			Status:    domain.StatusPending,
			CreatedAt: s.now(),
			Timeout:   s.policy.Default(),
		},
	}

	var created domain.Job

	s.mu.Lock()
	for {
		id := s.newID()
		if _, exists := s.jobs[id]; !exists {
			rec.job.ID = id
			created = rec.job
			s.jobs[id] = rec
			break
		}
	}
	s.mu.Unlock()

	s.logger.Debug("Job created",
		slog.String("job_id", created.ID),
		slog.Duration("timeout", created.Timeout),
	)

	return created
}

// GetJobByID returns a snapshot of the stored job without resolving its status
func (s *MemoryStore) GetJobByID(jobID string) (domain.Job, error) {
	rec, err := s.lookup(jobID)
	if err != nil {
		return domain.Job{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job, nil
}

// ResolveJob derives the current status of a job and commits any
// transition. The returned transition is nil unless this call moved the
// job out of pending.
func (s *MemoryStore) ResolveJob(jobID string) (domain.Job, *domain.Transition, error) {
	rec, err := s.lookup(jobID)
	if err != nil {
		return domain.Job{}, nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	previous := rec.job.Status
	if previous.IsTerminal() {
		return rec.job, nil, nil
	}

	now := s.now()
	current := domain.Resolve(&rec.job, now)
	if current == previous {
		return rec.job, nil, nil
	}

	transition := &domain.Transition{
		JobID:      rec.job.ID,
		From:       previous,
		To:         current,
		Elapsed:    now.Sub(rec.job.CreatedAt),
		Timeout:    rec.job.Timeout,
		OccurredAt: now,
	}

	s.logger.Info("Job status changed",
		slog.String("job_id", transition.JobID),
		slog.String("from", transition.From.String()),
		slog.String("to", transition.To.String()),
		slog.Duration("elapsed", transition.Elapsed),
	)

	return rec.job, transition, nil
}

// UpdateJobTimeout changes the timeout of a pending job. The new value
// takes effect on the next resolution. A job that already reached a
// terminal status is returned unchanged.
func (s *MemoryStore) UpdateJobTimeout(jobID string, timeout time.Duration) (domain.Job, error) {
	rec, err := s.lookup(jobID)
	if err != nil {
		return domain.Job{}, err
	}

	if err := domain.ValidateTimeout(timeout); err != nil {
		return domain.Job{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status.IsTerminal() {
		s.logger.Debug("Timeout update ignored for terminal job",
			slog.String("job_id", jobID),
			slog.String("status", rec.job.Status.String()),
		)
		return rec.job, nil
	}

	rec.job.Timeout = timeout
	return rec.job, nil
}

// DefaultTimeout returns the timeout applied to new jobs
func (s *MemoryStore) DefaultTimeout() time.Duration {
	return s.policy.Default()
}

// SetDefaultTimeout changes the timeout applied to jobs created from now on
func (s *MemoryStore) SetDefaultTimeout(timeout time.Duration) error {
	if err := s.policy.SetDefault(timeout); err != nil {
		return err
	}

	s.logger.Info("Default job timeout updated",
		slog.Duration("timeout", timeout),
	)

	return nil
}

// CountJobs returns the number of tracked jobs
func (s *MemoryStore) CountJobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) lookup(jobID string) (*record, error) {
	s.mu.RLock()
	rec, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, jobID)
	}
	return rec, nil
}
