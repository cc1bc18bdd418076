// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	commandService *service.CommandService
	config         *config.Config
	logger         *utils.ServiceLogger
	startTime      time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(commandService *service.CommandService, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		commandService: commandService,
		config:         config,
		logger:         utils.NewServiceLogger(logger, "health-handler"),
		startTime:      time.Now(),
	}
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Service metadata and the state of the serial line
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Serial port closed"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := h.commandService.Status()

	serialCheck := CheckResult{
		Status:  "healthy",
		Message: "Serial port open",
		Data: map[string]interface{}{
			"path":          status.Path,
			"config":        status.Config.String(),
			"bytes_written": status.Stats.BytesWritten,
			"error_count":   status.Stats.ErrorCount,
		},
	}
	code := http.StatusOK
	if h.commandService.Closed() {
		serialCheck.Status = "unhealthy"
		serialCheck.Message = "Serial port closed"
		code = http.StatusServiceUnavailable
	}

	health := &HealthResponse{
		Status:    serialCheck.Status,
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks: map[string]CheckResult{
			"serial": serialCheck,
		},
	}

	c.JSON(code, health)
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,port=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,port=string,timestamp=string} "Serial port closed"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.commandService.Closed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"port":      h.commandService.Status().Path,
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"port":      h.commandService.Status().Path,
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
