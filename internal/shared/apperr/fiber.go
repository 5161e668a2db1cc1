package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Render maps an error onto a status code and response body.
func Render(err error) (int, Body) {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		ingestion   *IngestionError
		persistence *PersistenceError
		fiberErr    *fiber.Error
	)

	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, Body{Code: "VALIDATION_ERROR", Message: "submission is invalid", Errors: validation.Messages}
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, Body{Code: "NOT_FOUND", Message: notFound.Error()}
	case errors.As(err, &ingestion):
		return fiber.StatusInternalServerError, Body{Code: "INGESTION_ERROR", Message: "image could not be processed"}
	case errors.As(err, &persistence):
		return fiber.StatusInternalServerError, Body{Code: "PERSISTENCE_ERROR", Message: "record could not be saved"}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, Body{Code: "HTTP_ERROR", Message: fiberErr.Message}
	default:
		return fiber.StatusInternalServerError, Body{Code: "INTERNAL_SERVER_ERROR", Message: "internal server error"}
	}
}

// Handler is installed as the fiber error handler. Server errors are logged
// with their cause since the response body hides it.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := Render(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}
