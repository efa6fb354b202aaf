package response

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
)

// Envelope is the success body every endpoint returns.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	StatusCode int         `json:"statusCode"`
	Timestamp  string      `json:"timestamp"`
}

// ErrorEnvelope is the failure body every endpoint returns.
type ErrorEnvelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
	StatusCode int                 `json:"statusCode"`
}

func envelope(status int, data interface{}, message string) Envelope {
	return Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

func Succeed(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(fiber.StatusOK).JSON(envelope(fiber.StatusOK, data, message))
}

func Created(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(fiber.StatusCreated).JSON(envelope(fiber.StatusCreated, data, message))
}

// Fail renders an error through the shared envelope. Non-app errors surface
// as 500 with a generic message.
func Fail(c *fiber.Ctx, err error) error {
	e := apperr.From(err)
	status := e.StatusCode()
	return c.Status(status).JSON(ErrorEnvelope{
		Success:    false,
		Message:    e.Message,
		Errors:     e.Fields,
		StatusCode: status,
	})
}
