package middleware

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/pkg/logger"
)

// errorResponse is the JSON envelope returned for any handler/middleware
// error, including panics recovered upstream and Fiber's own routing errors.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An error occurred"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		logger.Error(logger.CategoryAPI, "error_handler", "Request error occurred", err, map[string]interface{}{
			"status_code": code,
			"path":        c.Path(),
			"method":      c.Method(),
		})

		return c.Status(code).JSON(errorResponse{
			Error:   err.Error(),
			Message: message,
		})
	}
}
