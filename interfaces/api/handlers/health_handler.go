package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"drivesync/domain/services"
)

// HealthHandler checks the components a request-serving process actually
// depends on: Postgres, Redis, and the active Embedding Provider.
type HealthHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	provider services.Provider
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, provider services.Provider) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, provider: provider}
}

type componentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                      `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                   `json:"timestamp"`
	Components map[string]componentHealth `json:"components"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	components := make(map[string]componentHealth, 3)
	degraded := false
	unhealthy := false

	components["database"] = h.checkDatabase(ctx)
	if components["database"].Status != "ok" {
		unhealthy = true
	}

	components["redis"] = h.checkRedis(ctx)
	if components["redis"].Status == "error" {
		degraded = true
	}

	components["embedding_provider"] = h.checkProvider()
	if components["embedding_provider"].Status == "error" {
		degraded = true
	}

	status := "healthy"
	code := fiber.StatusOK
	switch {
	case unhealthy:
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	case degraded:
		status = "degraded"
	}

	return c.Status(code).JSON(healthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) componentHealth {
	if h.db == nil {
		return componentHealth{Status: "unavailable", Message: "database not configured"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return componentHealth{Status: "error", Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return componentHealth{Status: "error", Message: err.Error()}
	}
	return componentHealth{Status: "ok"}
}

func (h *HealthHandler) checkRedis(ctx context.Context) componentHealth {
	if h.redis == nil {
		return componentHealth{Status: "unavailable", Message: "redis not configured"}
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return componentHealth{Status: "error", Message: err.Error()}
	}
	return componentHealth{Status: "ok"}
}

func (h *HealthHandler) checkProvider() componentHealth {
	if h.provider == nil {
		return componentHealth{Status: "error", Message: "embedding provider not configured"}
	}
	return componentHealth{Status: "ok"}
}
