package dto

import (
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
)

// JobStatusResponse is returned by the legacy start and status routes
type JobStatusResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type JobDTO struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	TimeoutMs int64  `json:"timeoutMs"`
}

// NewJobDTO renders a job snapshot
func NewJobDTO(job domain.Job) JobDTO {
	return JobDTO{
		JobID:     job.ID,
		Status:    job.Status.String(),
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339Nano),
		TimeoutMs: job.Timeout.Milliseconds(),
	}
}

// TimeoutRequest is the body of timeout updates. The pointer lets an
// explicit zero reach validation instead of failing the binding.
type TimeoutRequest struct {
	TimeoutMs *int64 `json:"timeout_ms" binding:"required"`
}

type TimeoutResponse struct {
	TimeoutMs int64 `json:"timeout_ms"`
}

// SetGlobalTimeoutQuery binds the legacy ?timeout= parameter
type SetGlobalTimeoutQuery struct {
	Timeout *int64 `form:"timeout" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
