package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness of the service and its dependencies.
type HealthHandler struct {
	dbPing       func() error
	brokerStatus string
}

// NewHealthHandler creates a HealthHandler. dbPing may be nil when no SQL
// store is configured; brokerStatus is reported verbatim.
func NewHealthHandler(dbPing func() error, brokerStatus string) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, brokerStatus: brokerStatus}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth always answers 200; dependency state is in the body.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	database := "memory"
	if h.dbPing != nil {
		database = "up"
		if err := h.dbPing(); err != nil {
			database = "down"
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": database,
		"broker":   h.brokerStatus,
	})
}
