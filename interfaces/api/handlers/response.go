package handlers

import "github.com/gofiber/fiber/v2"

// errorJSON writes the {error, message} shape error_middleware.go also
// uses, so a handler's documented 4xx responses look like its fallback 500s.
func errorJSON(c *fiber.Ctx, status int, tag, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   tag,
		"message": message,
	})
}
