package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a job identifier is unknown to the store
	ErrNotFound = errors.New("job not found")

	// ErrInvalidArgument is returned for rejected input such as a non-positive timeout
	ErrInvalidArgument = errors.New("invalid argument")
)

// ValidateTimeout rejects non-positive timeouts
func ValidateTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be greater than zero", ErrInvalidArgument)
	}
	return nil
}

// maxTimeoutMillis is the largest millisecond value representable as a time.Duration
const maxTimeoutMillis = int64(1<<63-1) / int64(time.Millisecond)

// TimeoutFromMillis converts a client supplied millisecond value into a validated timeout
func TimeoutFromMillis(ms int64) (time.Duration, error) {
	if ms > maxTimeoutMillis {
		return 0, fmt.Errorf("%w: timeout must not exceed %d ms", ErrInvalidArgument, maxTimeoutMillis)
	}

	timeout := time.Duration(ms) * time.Millisecond
	if err := ValidateTimeout(timeout); err != nil {
		return 0, err
	}
	return timeout, nil
}
