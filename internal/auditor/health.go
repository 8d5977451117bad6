package auditor

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DatabaseChecker is satisfied by *postgresql.Client
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// BrokerChecker is satisfied by *rabbitmq.Client
type BrokerChecker interface {
	IsConnected() bool
}

// HealthRouter serves GET /health for the audit service. It answers 503
// while either dependency is unavailable.
func HealthRouter(db DatabaseChecker, broker BrokerChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "ok", "rabbitmq": "ok"}

		if err := db.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		}
		if !broker.IsConnected() {
			status = http.StatusServiceUnavailable
			checks["rabbitmq"] = "disconnected"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":  state,
			"service": "job-audit-service",
			"checks":  checks,
		})
	})

	return r
}
