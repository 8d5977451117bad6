package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
	"github.com/cuongbtq/job-status-service/internal/api/dto"
	"github.com/cuongbtq/job-status-service/internal/api/storage"
	"github.com/cuongbtq/job-status-service/internal/events"
	"github.com/gin-gonic/gin"
)

const defaultPublishTimeout = 2 * time.Second

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	Store          *storage.MemoryStore
	Publisher      events.Publisher
	PublishTimeout time.Duration
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger         *slog.Logger
	store          *storage.MemoryStore
	publisher      events.Publisher
	publishTimeout time.Duration
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	h := &JobHandler{
		logger:         deps.Logger,
		store:          deps.Store,
		publisher:      deps.Publisher,
		publishTimeout: deps.PublishTimeout,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.publisher == nil {
		h.publisher = events.NopPublisher{}
	}
	if h.publishTimeout <= 0 {
		h.publishTimeout = defaultPublishTimeout
	}
	return h
}

// resolve resolves a job's status and publishes the transition, if any.
// Publishing failures are logged and never fail the request.
func (h *JobHandler) resolve(ctx context.Context, jobID string) (domain.Job, error) {
	job, transition, err := h.store.ResolveJob(jobID)
	if err != nil {
		return domain.Job{}, err
	}

	if transition != nil {
		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.publishTimeout)
		defer cancel()

		if err := h.publisher.PublishTransition(publishCtx, events.NewTransitionEvent(*transition)); err != nil {
			h.logger.Error("Failed to publish transition event",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
	}

	return job, nil
}

// statusCode maps a core error kind to an HTTP status code
func statusCode(err error, notFound int) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return notFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, dto.ErrorResponse{Error: message})
}
