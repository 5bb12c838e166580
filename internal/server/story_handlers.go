package server

import (
	"stories/internal/models"
	"stories/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Creation bodies decode loosely; non-string values are coerced by the
// content guard helpers instead of failing the whole request.
type newTextStoryRequest struct {
	Text                  any                   `json:"text" swaggertype:"string"`
	ProgrammingLanguageID any                   `json:"programmingLanguageId" swaggertype:"string"`
	Filename              any                   `json:"filename" swaggertype:"string"`
	RecordingSteps        models.RecordingSteps `json:"recordingSteps" swaggertype:"object"`
}

type newGifStoryRequest struct {
	Token                 any `json:"token" swaggertype:"string"`
	ProgrammingLanguageID any `json:"programmingLanguageId" swaggertype:"string"`
}

type storyResponse struct {
	Story *models.StoryDetail `json:"story"`
}

type okBody struct {
	OK bool `json:"ok"`
}

// GetStory handles GET /text-story/:id and GET /gif-story/:id
// @Summary Get a story
// @Description Unknown or malformed ids yield {"story": null}. hasLiked is only set for authenticated callers.
// @Tags stories
// @Produce json
// @Param id path string true "Story id (UUID v4)"
// @Success 200 {object} storyResponse
// @Router /text-story/{id} [get]
// @Router /gif-story/{id} [get]
func (s *Server) GetStory(kind models.StoryKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStoryID(c.Params("id"))
		if !ok {
			return c.JSON(storyResponse{})
		}

		var viewerID *uuid.UUID
		if userID, ok := s.optionalUserID(c); ok {
			viewerID = &userID
		}

		story, err := s.storyService.GetStory(c.UserContext(), kind, id, viewerID)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return c.JSON(storyResponse{})
			}
			return respondError(c, err)
		}
		return c.JSON(storyResponse{Story: story})
	}
}

// GetHotStories handles GET /text-stories/hot/:cursor? and GET /gif-stories/hot/:cursor?
// @Summary Hot feed page
// @Description Pages of 21 stories ordered by (likes+1)/age^1.8. The cursor is a page index.
// @Tags stories
// @Produce json
// @Param cursor path int false "Page index"
// @Success 200 {object} service.FeedPage
// @Router /text-stories/hot/{cursor} [get]
// @Router /gif-stories/hot/{cursor} [get]
func (s *Server) GetHotStories(kind models.StoryKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cursor := service.ParseCursor(c.Params("cursor"))

		page, err := s.feedService.Hot(c.UserContext(), kind, cursor)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	}
}

// CreateTextStory handles POST /new-text-story
// @Summary Create a text story
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body newTextStoryRequest true "Story"
// @Success 200 {object} service.CreatedStory
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /new-text-story [post]
func (s *Server) CreateTextStory(c *fiber.Ctx) error {
	var req newTextStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.storyService.CreateTextStory(c.UserContext(), currentUserID(c), service.TextStoryInput{
		Text:                  service.CoerceString(req.Text),
		ProgrammingLanguageID: service.CoerceOptionalString(req.ProgrammingLanguageID),
		Filename:              service.CoerceString(req.Filename),
		RecordingSteps:        req.RecordingSteps,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(created)
}

// CreateGifStory handles POST /new-gif-story
// @Summary Create a gif story
// @Description token is the signed credential returned by the upload pipeline.
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body newGifStoryRequest true "Story"
// @Success 200 {object} service.CreatedStory
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /new-gif-story [post]
func (s *Server) CreateGifStory(c *fiber.Ctx) error {
	var req newGifStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.storyService.CreateGifStory(c.UserContext(), currentUserID(c), service.GifStoryInput{
		Token:                 service.CoerceString(req.Token),
		ProgrammingLanguageID: service.CoerceOptionalString(req.ProgrammingLanguageID),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(created)
}

// LikeStory handles POST /like-text-story/:id and POST /like-gif-story/:id
// @Summary Like a story
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story id (UUID v4)"
// @Success 200 {object} okBody
// @Failure 400 {object} models.ErrorResponse "Already liked"
// @Router /like-text-story/{id} [post]
// @Router /like-gif-story/{id} [post]
func (s *Server) LikeStory(kind models.StoryKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStoryID(c.Params("id"))
		if !ok {
			return okResponse(c, false)
		}

		if err := s.storyService.LikeStory(c.UserContext(), kind, id, currentUserID(c)); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return okResponse(c, false)
			}
			return respondError(c, err)
		}
		return okResponse(c, true)
	}
}

// UnlikeStory handles POST /unlike-text-story/:id and POST /unlike-gif-story/:id
// @Summary Remove a like
// @Description Unliking a story that was never liked succeeds.
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story id (UUID v4)"
// @Success 200 {object} okBody
// @Router /unlike-text-story/{id} [post]
// @Router /unlike-gif-story/{id} [post]
func (s *Server) UnlikeStory(kind models.StoryKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStoryID(c.Params("id"))
		if !ok {
			return okResponse(c, false)
		}

		if err := s.storyService.UnlikeStory(c.UserContext(), kind, id, currentUserID(c)); err != nil {
			return respondError(c, err)
		}
		return okResponse(c, true)
	}
}

// DeleteStory handles POST /delete-text-story/:id and POST /delete-gif-story/:id
// @Summary Delete a story
// @Description Creators may delete their own stories, moderators any story.
// @Tags stories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story id (UUID v4)"
// @Success 200 {object} okBody
// @Failure 403 {object} models.ErrorResponse
// @Router /delete-text-story/{id} [post]
// @Router /delete-gif-story/{id} [post]
func (s *Server) DeleteStory(kind models.StoryKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStoryID(c.Params("id"))
		if !ok {
			return okResponse(c, false)
		}

		deleted, err := s.storyService.DeleteStory(c.UserContext(), service.DeleteStoryInput{
			Kind:    kind,
			StoryID: id,
			UserID:  currentUserID(c),
		})
		if err != nil {
			return respondError(c, err)
		}
		return okResponse(c, deleted)
	}
}
