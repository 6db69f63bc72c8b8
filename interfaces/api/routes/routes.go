package routes

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/interfaces/api/handlers"
)

// SetupRoutes registers every endpoint at the bare paths the Job Dispatcher,
// Drive push notifications, and Cloud Scheduler expect to call — unlike the
// teacher's user-facing API, this surface has no /api/v1 prefix group.
func SetupRoutes(app *fiber.App, h *handlers.Handlers) {
	SetupHealthRoutes(app, h)
	SetupVectorizeRoutes(app, h)
	SetupSearchRoutes(app, h)
	SetupDriveRoutes(app, h)
	SetupSchedulerRoutes(app, h)
}
