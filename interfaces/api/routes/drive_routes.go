package routes

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/interfaces/api/handlers"
)

func SetupDriveRoutes(router fiber.Router, h *handlers.Handlers) {
	drive := router.Group("/drive")

	drive.Post("/watch", h.DriveWatch.Create)
	drive.Delete("/watch/:uuid", h.DriveWatch.Delete)
	drive.Post("/watch/re-register", h.DriveWatch.ReRegister)
	drive.Post("/notifications", h.Notification.Receive)
}
