package storage

import (
	"sync"
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
)

// DefaultJobTimeout is applied when no default timeout is configured
const DefaultJobTimeout = 15 * time.Second

// Policy holds the default timeout given to newly created jobs.
// Changing it never affects jobs that already exist.
type Policy struct {
	mu             sync.RWMutex
	defaultTimeout time.Duration
}

// NewPolicy creates a Policy with the given initial default timeout
func NewPolicy(initial time.Duration) (*Policy, error) {
	if err := domain.ValidateTimeout(initial); err != nil {
		return nil, err
	}
	return &Policy{defaultTimeout: initial}, nil
}

// Default returns the current default timeout
func (p *Policy) Default() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defaultTimeout
}

// SetDefault replaces the default timeout. A non-positive value is
// rejected and the previous default is kept.
func (p *Policy) SetDefault(timeout time.Duration) error {
	if err := domain.ValidateTimeout(timeout); err != nil {
		return err
	}

	p.mu.Lock()
	p.defaultTimeout = timeout
	p.mu.Unlock()

	return nil
}
