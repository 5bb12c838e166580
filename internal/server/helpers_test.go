package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stories/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoryID(t *testing.T) {
	v4 := uuid.New()

	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"v4", v4.String(), true},
		{"v4 upper case", "6F9619FF-8B86-4D11-B42D-00C04FC964FF", true},
		{"v1", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"braces", "{" + v4.String() + "}", false},
		{"urn", "urn:uuid:" + v4.String(), false},
		{"no dashes", "6f9619ff8b864d11b42d00c04fc964ff", false},
		{"garbage", "not-a-uuid", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseStoryID(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.NotEqual(t, uuid.Nil, id)
			} else {
				assert.Equal(t, uuid.Nil, id)
			}
		})
	}
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError("bad"), http.StatusBadRequest},
		{"duplicate", models.NewDuplicateActionError("again"), http.StatusBadRequest},
		{"upload credential", models.NewUploadCredentialError("bad token", nil), http.StatusBadRequest},
		{"upgrade", models.NewUpgradeRequiredError(UpgradeMessage), http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"forbidden", models.NewForbiddenError("no"), http.StatusForbidden},
		{"not found", models.NewNotFoundError("Story", 1), http.StatusNotFound},
		{"rate limited", models.NewRateLimitError("slow down"), http.StatusTooManyRequests},
		{"unavailable", models.NewServiceUnavailableError("down", nil), http.StatusServiceUnavailable},
		{"internal", models.NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapServiceError(tt.err))
		})
	}
}

func TestRespondError_HidesInternalCause(t *testing.T) {
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error {
		return respondError(c, models.NewInternalError(errors.New("pq: password authentication failed")))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)

	var body models.ErrorResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, models.CodeInternal, body.Code)
}
