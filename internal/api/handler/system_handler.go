package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/gin-gonic/gin"
)

// SystemHandler serves health probes, the service banner and job status
type SystemHandler struct {
	logger  *slog.Logger
	jobs    JobReader
	store   Pinger
	broker  BrokerStatus
	appName string
	version string
}

func NewSystemHandler(deps *Dependencies) *SystemHandler {
	return &SystemHandler{
		logger:  deps.Logger,
		jobs:    deps.Jobs,
		store:   deps.Store,
		broker:  deps.Broker,
		appName: deps.AppName,
		version: deps.Version,
	}
}

// Root handles GET /
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BaseResponse{
		Success: true,
		Message: h.appName + " is running",
		Data:    gin.H{"version": h.version},
	})
}

// Health handles GET /health. A failing database degrades the status but
// the probe still answers 200.
func (h *SystemHandler) Health(c *gin.Context) {
	status := "healthy"
	services := gin.H{}

	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("Database health check failed", slog.String("error", err.Error()))
			services["database"] = "unhealthy"
			status = "degraded"
		} else {
			services["database"] = "healthy"
		}
	}

	if h.broker != nil {
		services["rabbitmq"] = "connected"
		if !h.broker.IsConnected() {
			services["rabbitmq"] = "disconnected"
			status = "degraded"
		}
	}

	if h.jobs != nil {
		stats := h.jobs.Stats()
		services["queue"] = "healthy"
		if stats.WorkersRunning == 0 {
			services["queue"] = "stopped"
			status = "degraded"
		}
		services["queue_stats"] = stats
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Version:   h.version,
	})
}

// Ready handles GET /ready
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetJob handles GET /jobs/:job_id
func (h *SystemHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	job, ok := h.jobs.GetJobStatus(jobID)
	if !ok {
		respondError(c, h.logger, domain.NewNotFoundError("job %s not found", jobID))
		return
	}
	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// JobStats handles GET /jobs/stats
func (h *SystemHandler) JobStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.Stats())
}
