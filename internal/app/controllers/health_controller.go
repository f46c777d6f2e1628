package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/cache"
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports dependency status
type HealthController struct {
	db    Pinger
	redis *redis.Client
}

// NewHealthController creates a new HealthController. redisClient may be nil.
func NewHealthController(db Pinger, redisClient *redis.Client) *HealthController {
	return &HealthController{db: db, redis: redisClient}
}

// Health reports database and redis status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 503 {object} dto.APIResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "database": "up"}
	code := http.StatusOK
	if err := c.db.Ping(reqCtx); err != nil {
		status["status"] = "degraded"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}
	switch {
	case c.redis == nil:
		status["redis"] = "disabled"
	case cache.Healthy(reqCtx, c.redis):
		status["redis"] = "up"
	default:
		status["redis"] = "down"
	}

	ctx.JSON(code, dto.NewSuccessResponse(status))
}
