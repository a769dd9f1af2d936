package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/pkg/database"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/types"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db     *database.DB
	redis  *redis.Client
	edge   *providers.EdgeClient
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, redisClient *redis.Client, edge *providers.EdgeClient, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		edge:   edge,
		logger: logger,
	}
}

// GetHealth returns the basic health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ok",
		Service:   "picksrocket",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			response.Status = "unhealthy"
			response.Checks["database"] = "failed: " + err.Error()
		} else {
			response.Checks["database"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			response.Status = "unhealthy"
			response.Checks["redis"] = "failed: " + err.Error()
		} else {
			response.Checks["redis"] = "ok"
		}
	}

	statusCode := http.StatusOK
	if response.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// GetReadiness also probes the projection backend, which the liveness check
// deliberately leaves out.
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ready",
		Service:   "picksrocket",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if h.edge != nil {
		latency, err := h.edge.Health(c.Request.Context())
		if err != nil {
			response.Status = "not ready"
			response.Checks["edge_backend"] = "failed: " + err.Error()
		} else {
			response.Checks["edge_backend"] = "ok (" + latency.Round(time.Millisecond).String() + ")"
		}
	}

	statusCode := http.StatusOK
	if response.Status != "ready" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
