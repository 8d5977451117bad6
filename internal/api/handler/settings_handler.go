package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
	"github.com/cuongbtq/job-status-service/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// GetDefaultTimeout handles GET /api/v1/settings/default-timeout
func (h *JobHandler) GetDefaultTimeout(c *gin.Context) {
	c.JSON(http.StatusOK, dto.TimeoutResponse{
		TimeoutMs: h.store.DefaultTimeout().Milliseconds(),
	})
}

// SetDefaultTimeout handles PUT /api/v1/settings/default-timeout
func (h *JobHandler) SetDefaultTimeout(c *gin.Context) {
	var req dto.TimeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		abortWithError(c, http.StatusBadRequest, "timeout_ms is required")
		return
	}

	if err := h.setDefaultTimeout(*req.TimeoutMs); err != nil {
		abortWithError(c, statusCode(err, http.StatusBadRequest), err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.TimeoutResponse{
		TimeoutMs: h.store.DefaultTimeout().Milliseconds(),
	})
}

func (h *JobHandler) setDefaultTimeout(timeoutMs int64) error {
	timeout, err := domain.TimeoutFromMillis(timeoutMs)
	if err != nil {
		h.logger.Warn("Rejected default timeout",
			slog.Int64("timeout_ms", timeoutMs),
			slog.String("error", err.Error()),
		)
		return err
	}

	return h.store.SetDefaultTimeout(timeout)
}
