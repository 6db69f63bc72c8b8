package routes

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/interfaces/api/handlers"
)

func SetupVectorizeRoutes(router fiber.Router, h *handlers.Handlers) {
	router.Post("/vectorize", h.Vectorize.Single)
	router.Post("/vectorize-batch", h.Vectorize.Batch)
}
