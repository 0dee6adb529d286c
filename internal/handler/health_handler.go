package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/redis"
)

// HealthHandler reports process and dependency health
type HealthHandler struct {
	db    *database.PostgresDB
	redis *redis.Client
}

// NewHealthHandler creates a new health handler. The redis client may be nil
// when sessions are kept in memory.
func NewHealthHandler(db *database.PostgresDB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready. It fails when any dependency is down.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": checks})
}

// Stats handles GET /metrics with connection pool counters
func (h *HealthHandler) Stats(c *gin.Context) {
	stats := h.db.Stats()
	c.JSON(http.StatusOK, gin.H{
		"pool": gin.H{
			"total_conns":    stats.TotalConns(),
			"idle_conns":     stats.IdleConns(),
			"acquired_conns": stats.AcquiredConns(),
			"max_conns":      stats.MaxConns(),
			"acquire_count":  stats.AcquireCount(),
			"empty_acquires": stats.EmptyAcquireCount(),
		},
	})
}
