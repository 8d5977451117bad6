package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Boundaries(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	timeouts := []time.Duration{
		time.Millisecond,
		1000 * time.Millisecond,
		15 * time.Second,
	}

	for _, timeout := range timeouts {
		tests := []struct {
			name    string
			elapsed time.Duration
			want    Status
		}{
			{name: "just created", elapsed: 0, want: StatusPending},
			{name: "exactly timeout", elapsed: timeout, want: StatusPending},
			{name: "one tick past timeout", elapsed: timeout + time.Nanosecond, want: StatusCompleted},
			{name: "one ms past timeout", elapsed: timeout + time.Millisecond, want: StatusCompleted},
			{name: "exactly twice timeout", elapsed: 2 * timeout, want: StatusCompleted},
			{name: "one tick past twice timeout", elapsed: 2*timeout + time.Nanosecond, want: StatusError},
			{name: "one ms past twice timeout", elapsed: 2*timeout + time.Millisecond, want: StatusError},
		}

		for _, tt := range tests {
			t.Run(timeout.String()+"/"+tt.name, func(t *testing.T) {
				job := &Job{
					ID:        "job-1",
					Status:    StatusPending,
					CreatedAt: createdAt,
					Timeout:   timeout,
				}

				got := Resolve(job, createdAt.Add(tt.elapsed))

				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.want, job.Status, "status should be committed to the record")
			})
		}
	}
}

func TestResolve_TerminalStatusIsAbsorbing(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("completed stays completed after twice timeout", func(t *testing.T) {
		job := &Job{Status: StatusPending, CreatedAt: createdAt, Timeout: time.Second}

		assert.Equal(t, StatusCompleted, Resolve(job, createdAt.Add(1500*time.Millisecond)))

		for _, later := range []time.Duration{2 * time.Second, 3 * time.Second, time.Hour} {
			assert.Equal(t, StatusCompleted, Resolve(job, createdAt.Add(later)))
		}
	})

	t.Run("error stays error", func(t *testing.T) {
		job := &Job{Status: StatusPending, CreatedAt: createdAt, Timeout: time.Second}

		assert.Equal(t, StatusError, Resolve(job, createdAt.Add(5*time.Second)))
		assert.Equal(t, StatusError, Resolve(job, createdAt.Add(10*time.Second)))
	})

	t.Run("terminal status ignores an earlier clock", func(t *testing.T) {
		job := &Job{Status: StatusCompleted, CreatedAt: createdAt, Timeout: time.Second}

		assert.Equal(t, StatusCompleted, Resolve(job, createdAt))
	})

	t.Run("terminal status ignores a changed timeout", func(t *testing.T) {
		job := &Job{Status: StatusError, CreatedAt: createdAt, Timeout: time.Second}
		job.Timeout = time.Hour

		assert.Equal(t, StatusError, Resolve(job, createdAt.Add(2*time.Second)))
	})
}

func TestResolve_TimeoutChangeWhilePending(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	job := &Job{Status: StatusPending, CreatedAt: createdAt, Timeout: time.Second}

	job.Timeout = 10 * time.Second

	assert.Equal(t, StatusPending, Resolve(job, createdAt.Add(5*time.Second)))
	assert.Equal(t, StatusCompleted, Resolve(job, createdAt.Add(15*time.Second)))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
}

func TestValidateTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{name: "positive", timeout: time.Millisecond, wantErr: false},
		{name: "zero", timeout: 0, wantErr: true},
		{name: "negative", timeout: -5 * time.Millisecond, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeout(tt.timeout)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimeoutFromMillis(t *testing.T) {
	tests := []struct {
		name    string
		ms      int64
		want    time.Duration
		wantErr bool
	}{
		{name: "one second", ms: 1000, want: time.Second},
		{name: "one millisecond", ms: 1, want: time.Millisecond},
		{name: "zero", ms: 0, wantErr: true},
		{name: "negative", ms: -5, wantErr: true},
		{name: "overflows duration", ms: 1 << 62, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeoutFromMillis(tt.ms)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
