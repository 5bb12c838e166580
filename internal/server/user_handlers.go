package server

import (
	"stories/internal/models"

	"github.com/gofiber/fiber/v2"
)

type updateFlairRequest struct {
	Flair any `json:"flair" swaggertype:"string"`
}

// UpdateFlair handles POST /update-flair
// @Summary Set the caller's flair
// @Description The flair must be a string of 1 to 40 characters; anything else answers {"ok": false}.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body updateFlairRequest true "Flair"
// @Success 200 {object} okBody
// @Router /update-flair [post]
func (s *Server) UpdateFlair(c *fiber.Ctx) error {
	var req updateFlairRequest
	if err := c.BodyParser(&req); err != nil {
		return okResponse(c, false)
	}
	flair, ok := req.Flair.(string)
	if !ok {
		return okResponse(c, false)
	}

	if err := s.userService.UpdateFlair(c.UserContext(), currentUserID(c), flair); err != nil {
		if models.IsCode(err, models.CodeValidation) || models.IsCode(err, models.CodeNotFound) {
			return okResponse(c, false)
		}
		return respondError(c, err)
	}
	return okResponse(c, true)
}
