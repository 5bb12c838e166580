package server

import (
	"stories/internal/featureflags"
	"stories/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
// @Summary Feature flags for the caller
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

// creationOpen rejects story creation while the pause flag for kind is on
// for the caller.
func (s *Server) creationOpen(kind models.StoryKind) fiber.Handler {
	flag := featureflags.PauseTextStories
	if kind == models.StoryKindGIF {
		flag = featureflags.PauseGifStories
	}
	return func(c *fiber.Ctx) error {
		if s.featureFlags.Enabled(flag, currentUserID(c)) {
			return respondError(c, models.NewServiceUnavailableError(
				"Posting "+string(kind)+" stories is paused, try again later.", nil))
		}
		return c.Next()
	}
}
