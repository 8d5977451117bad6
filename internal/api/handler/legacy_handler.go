package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
	"github.com/cuongbtq/job-status-service/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// The handlers below keep the route shapes, payloads and messages of the
// first version of the API so existing polling clients keep working.

// StartJob handles GET /api/start
func (h *JobHandler) StartJob(c *gin.Context) {
	job := h.store.CreateJob()

	h.logger.Info("Job started",
		slog.String("job_id", job.ID),
		slog.Int64("timeout_ms", job.Timeout.Milliseconds()),
	)

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		JobID:  job.ID,
		Status: job.Status.String(),
	})
}

// GetJobStatus handles GET /api/status/:job_id.
// Failures are reported with 500, as the first version did.
func (h *JobHandler) GetJobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.resolve(c.Request.Context(), jobID)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, domain.ErrNotFound) {
			reason = "Invalid jobId: " + jobID
		}

		h.logger.Warn("Failed to fetch job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		abortWithError(c, http.StatusInternalServerError, fmt.Sprintf("Error fetching job status: %s", reason))
		return
	}

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		JobID:  job.ID,
		Status: job.Status.String(),
	})
}

// SetGlobalTimeout handles POST /api/set-global-timeout?timeout=<ms>
func (h *JobHandler) SetGlobalTimeout(c *gin.Context) {
	var query dto.SetGlobalTimeoutQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid timeout parameter", slog.String("error", err.Error()))
		abortWithError(c, http.StatusBadRequest, "Error setting global timeout: timeout must be an integer number of milliseconds")
		return
	}

	if err := h.setDefaultTimeout(*query.Timeout); err != nil {
		abortWithError(c, statusCode(err, http.StatusBadRequest), fmt.Sprintf("Error setting global timeout: %s", err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Global timeout updated successfully",
	})
}
