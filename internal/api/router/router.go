package router

import (
	"net/http"

	"github.com/cuongbtq/job-status-service/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "job-status-service",
			"jobs":    deps.Store.CountJobs(),
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	// Routes of the first API version, kept for existing clients
	api := r.Group("/api")
	{
		api.GET("/start", jobHandler.StartJob)
		api.GET("/status/:job_id", jobHandler.GetJobStatus)
		api.POST("/set-global-timeout", jobHandler.SetGlobalTimeout)
	}

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Create a new job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs/:job_id - Resolve and return a job
			jobs.GET("/:job_id", jobHandler.GetJob)

			// PUT /api/v1/jobs/:job_id/timeout - Change a pending job's timeout
			jobs.PUT("/:job_id/timeout", jobHandler.UpdateJobTimeout)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("/default-timeout", jobHandler.GetDefaultTimeout)
			settings.PUT("/default-timeout", jobHandler.SetDefaultTimeout)
		}
	}

	return r
}
