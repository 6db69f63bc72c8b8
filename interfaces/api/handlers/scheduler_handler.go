package handlers

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// SchedulerHandler exposes the Scheduler's sweep over HTTP, for operators
// or external cron systems that trigger it instead of the in-process timer.
type SchedulerHandler struct {
	scheduler services.AutoUpdateScheduler
}

func NewSchedulerHandler(scheduler services.AutoUpdateScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// Trigger handles POST /auto-update.
func (h *SchedulerHandler) Trigger(c *fiber.Ctx) error {
	report, err := h.scheduler.RunOnce(c.UserContext())
	if err != nil {
		logger.Error(logger.CategorySchedule, "run_failed", "auto-update sweep failed", err, nil)
		return errorJSON(c, fiber.StatusInternalServerError, "sweep_failed", "auto-update sweep failed")
	}
	return c.JSON(report)
}
