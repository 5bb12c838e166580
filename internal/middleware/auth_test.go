package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signClaims(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseAccessToken(t *testing.T) {
	userID := uuid.New()
	valid, err := IssueAccessToken(testSecret, userID, time.Hour)
	require.NoError(t, err)

	legacyClaim := signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.String(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}, []byte(testSecret))

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{name: "Happy Path", token: valid},
		{name: "Legacy userId claim", token: legacyClaim},
		{name: "Empty", token: "", expectError: true},
		{name: "Garbage", token: "abc.def.ghi", expectError: true},
		{
			name: "Expired",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(-time.Hour).Unix(),
			}, []byte(testSecret)),
			expectError: true,
		},
		{
			name: "Wrong Secret",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": userID.String(),
			}, []byte("another-secret")),
			expectError: true,
		},
		{
			name: "Non UUID subject",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "123",
			}, []byte(testSecret)),
			expectError: true,
		},
		{
			name: "Missing subject",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}, []byte(testSecret)),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAccessToken(testSecret, tt.token)
			if tt.expectError {
				assert.Error(t, err)
				assert.Equal(t, uuid.Nil, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

func TestExtractToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ExtractToken(c))
	})

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "abc"},
		{"extension header", map[string]string{AccessTokenHeader: "xyz"}, "xyz"},
		{"malformed authorization", map[string]string{"Authorization": "Basic abc"}, ""},
		{"none", map[string]string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			assert.Equal(t, tt.expected, string(body))
		})
	}
}
