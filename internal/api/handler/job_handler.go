package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
	"github.com/cuongbtq/job-status-service/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	job := h.store.CreateJob()

	h.logger.Info("Job created",
		slog.String("job_id", job.ID),
		slog.Int64("timeout_ms", job.Timeout.Milliseconds()),
	)

	c.JSON(http.StatusCreated, dto.NewJobDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
// Resolves the job's status against the current time before responding
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.resolve(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Warn("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		abortWithError(c, statusCode(err, http.StatusNotFound), err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// UpdateJobTimeout handles PUT /api/v1/jobs/:job_id/timeout
func (h *JobHandler) UpdateJobTimeout(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.TimeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		abortWithError(c, http.StatusBadRequest, "timeout_ms is required")
		return
	}

	job, err := h.updateJobTimeout(jobID, *req.TimeoutMs)
	if err != nil {
		h.logger.Warn("Failed to update job timeout",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		abortWithError(c, statusCode(err, http.StatusNotFound), err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

func (h *JobHandler) updateJobTimeout(jobID string, timeoutMs int64) (domain.Job, error) {
	// existence is reported before the value, as the store does
	if _, err := h.store.GetJobByID(jobID); err != nil {
		return domain.Job{}, err
	}

	timeout, err := domain.TimeoutFromMillis(timeoutMs)
	if err != nil {
		return domain.Job{}, err
	}

	return h.store.UpdateJobTimeout(jobID, timeout)
}
