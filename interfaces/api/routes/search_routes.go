package routes

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/interfaces/api/handlers"
)

func SetupSearchRoutes(router fiber.Router, h *handlers.Handlers) {
	router.Get("/search", h.Search.Search)
	router.Post("/search", h.Search.Search)
}
