package utils

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the common failure shape: a short machine-checkable
// reason string, no diagnostic detail (that goes to the logs).
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "internal error"
	}

	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// SendJSON sends a success payload as-is; handlers use typed response DTOs
// that carry their own success flag.
func SendJSON(c *fiber.Ctx, payload interface{}) error {
	return c.Status(fiber.StatusOK).JSON(payload)
}
