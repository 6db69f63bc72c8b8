package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// NotificationHandler receives Google Drive push notifications and hands
// them to the Notification Router.
type NotificationHandler struct {
	router services.NotificationRouter
}

func NewNotificationHandler(router services.NotificationRouter) *NotificationHandler {
	return &NotificationHandler{router: router}
}

// Receive handles POST /drive/notifications.
func (h *NotificationHandler) Receive(c *fiber.Ctx) error {
	channelID := c.Get("X-Goog-Channel-Id")
	resourceState := c.Get("X-Goog-Resource-State")
	changedHeader := c.Get("X-Goog-Changed")

	var changedTypes []string
	if changedHeader != "" {
		for _, t := range strings.Split(changedHeader, ",") {
			changedTypes = append(changedTypes, strings.TrimSpace(t))
		}
	}

	if channelID == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}

	result, err := h.router.Handle(c.UserContext(), channelID, resourceState, changedTypes)
	if err != nil {
		logger.Error(logger.CategoryNotify, "handle_failed", "failed to handle drive notification", err, map[string]interface{}{"channel_id": channelID})
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	logger.Info(logger.CategoryNotify, "notification_handled", "drive notification processed", map[string]interface{}{
		"channel_id":     channelID,
		"status":         result.Status,
		"changes_found":  result.ChangesFound,
		"jobs_triggered": result.JobsTriggered,
	})
	return c.SendStatus(fiber.StatusNoContent)
}
