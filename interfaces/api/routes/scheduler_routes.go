package routes

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/interfaces/api/handlers"
)

func SetupSchedulerRoutes(router fiber.Router, h *handlers.Handlers) {
	router.Post("/auto-update", h.Scheduler.Trigger)
}
