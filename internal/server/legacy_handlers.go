package server

import (
	"stories/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UpgradeMessage tells users of old extension builds to update.
const UpgradeMessage = "Upgrade the VSCode Stories extension, I fixed it and changed the API."

// Deprecated answers every route removed when stories were split into text
// and gif kinds.
// @Summary Removed endpoints
// @Tags legacy
// @Produce json
// @Failure 400 {object} models.ErrorResponse
// @Router /story/likes/{id} [get]
// @Router /stories/hot/{cursor} [get]
// @Router /like-story/{id}/{username} [post]
// @Router /new-story [post]
func (s *Server) Deprecated(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewUpgradeRequiredError(UpgradeMessage))
}
