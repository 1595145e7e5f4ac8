package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/streamtube/backend/internal/apperr"
)

// Envelope is the uniform response body, success and failure alike.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Data       any      `json:"data"`
	Errors     []string `json:"errors"`
}

func Respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
		Errors:     []string{},
	})
}

// ErrorHandler converts apperr values (and stray fiber errors) into the
// envelope. Internal causes are logged, never serialized.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return writeError(c, apperr.Dependency(fe.Message, fe.Code))
		}

		ae := apperr.From(err)
		if ae.Kind == apperr.KindInternal || ae.Status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("kind", string(ae.Kind)),
				zap.Error(err),
			)
		}
		return writeError(c, ae)
	}
}

func writeError(c *fiber.Ctx, ae *apperr.Error) error {
	errs := ae.Errs
	if errs == nil {
		errs = []string{}
	}
	return c.Status(ae.Status).JSON(Envelope{
		StatusCode: ae.Status,
		Success:    false,
		Message:    ae.Message,
		Data:       nil,
		Errors:     errs,
	})
}
