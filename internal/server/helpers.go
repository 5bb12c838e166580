package server

import (
	"errors"
	"log/slog"

	"stories/internal/middleware"
	"stories/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// canonicalUUIDLength is the length of the 8-4-4-4-12 hex form.
const canonicalUUIDLength = 36

// parseStoryID accepts only canonical v4 UUIDs. Anything else is treated as
// an unknown story by the callers, without touching the store.
func parseStoryID(raw string) (uuid.UUID, bool) {
	if len(raw) != canonicalUUIDLength {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 {
		return uuid.Nil, false
	}
	return id, true
}

// mapServiceError picks the HTTP status for an error returned by the service layer.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch appErr.Code {
	case models.CodeValidation, models.CodeDuplicateAction,
		models.CodeUploadCredential, models.CodeUpgradeRequired:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeRateLimited:
		return fiber.StatusTooManyRequests
	case models.CodeServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status mapServiceError picks. Server-side
// failures are logged with their cause, which never reaches the client.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

func okResponse(c *fiber.Ctx, ok bool) error {
	return c.JSON(fiber.Map{"ok": ok})
}
