package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"unauthenticated", NewAuthenticationError("Not logged in"), fiber.StatusUnauthorized},
		{"invalid credentials", NewInvalidCredentialsError(), fiber.StatusUnauthorized},
		{"forbidden", NewAuthorizationError("nope"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("Post", 3), fiber.StatusNotFound},
		{"conflict", NewConflictError("taken"), fiber.StatusConflict},
		{"storage", NewStorageError(errors.New("disk full")), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("load: %w", NewNotFoundError("Tag", 9)), fiber.StatusNotFound},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewConflictError("taken"))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}

func TestAppError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)

	assert.Equal(t, "Internal server error: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Post with ID 4 not found", NewNotFoundError("Post", 4).Error())
}

func TestRespondWithError(t *testing.T) {
	app := fiber.New()
	app.Get("/app", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusConflict, NewConflictError("Username or email already taken"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, errors.New("boom"))
	})

	decode := func(path string) (int, ErrorResponse) {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(body, &out))
		return resp.StatusCode, out
	}

	status, body := decode("/app")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, ErrorResponse{Error: "Username or email already taken", Code: CodeConflict}, body)

	status, body = decode("/plain")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "boom", body.Error)
	assert.Empty(t, body.Code)
}
