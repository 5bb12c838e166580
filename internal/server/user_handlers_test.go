package server

import (
	"net/http"
	"strings"
	"testing"

	"stories/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFlair(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env.db, false)
	token := testToken(t, user.ID)

	tests := []struct {
		name   string
		body   any
		wantOK bool
	}{
		{"valid", map[string]any{"flair": "rust"}, true},
		{"max length", map[string]any{"flair": strings.Repeat("é", models.MaxFlairLength)}, true},
		{"empty", map[string]any{"flair": ""}, false},
		{"too long", map[string]any{"flair": strings.Repeat("x", models.MaxFlairLength+1)}, false},
		{"not a string", map[string]any{"flair": 42}, false},
		{"missing", map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/update-flair", token, tt.body)
			var body okBody
			decodeJSON(t, resp, &body)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantOK, body.OK)
		})
	}

	var stored models.User
	require.NoError(t, env.db.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.Flair)
	assert.Equal(t, strings.Repeat("é", models.MaxFlairLength), *stored.Flair)
}

func TestUpdateFlair_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/update-flair", "", map[string]any{"flair": "go"})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
