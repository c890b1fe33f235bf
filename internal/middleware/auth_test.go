package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (models.Actor, error) {
	return models.Actor{UserID: 9}, errors.New("redis down")
}

func TestResolveActor(t *testing.T) {
	manager := session.NewManager(session.NewMemoryStore(), session.NewTokenCodec("test-secret"), time.Hour)
	sess, err := manager.Start(context.Background(), 123)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(ResolveActor(manager))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		fromCtx := ActorFromContext(c.UserContext())
		return c.JSON(fiber.Map{"user_id": Actor(c).UserID, "ctx_user_id": fromCtx.UserID})
	})
	app.Get("/private", RequireActor, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name       string
		path       string
		header     string
		cookie     string
		wantStatus int
		wantUserID uint
	}{
		{name: "bearer token", path: "/whoami", header: "Bearer " + sess.Token, wantStatus: http.StatusOK, wantUserID: 123},
		{name: "cookie", path: "/whoami", cookie: sess.Token, wantStatus: http.StatusOK, wantUserID: 123},
		{name: "no token is anonymous", path: "/whoami", wantStatus: http.StatusOK},
		{name: "garbage token is anonymous", path: "/whoami", header: "Bearer nope", wantStatus: http.StatusOK},
		{name: "basic auth ignored", path: "/whoami", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusOK},
		{name: "private with session", path: "/private", header: "Bearer " + sess.Token, wantStatus: http.StatusNoContent},
		{name: "private anonymous", path: "/private", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusOK {
				var body map[string]uint
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.wantUserID, body["user_id"])
				assert.Equal(t, tt.wantUserID, body["ctx_user_id"])
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeUnauthenticated, body.Code)
			}
		})
	}
}

func TestResolveActor_EndedSession(t *testing.T) {
	manager := session.NewManager(session.NewMemoryStore(), session.NewTokenCodec("test-secret"), time.Hour)
	sess, err := manager.Start(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, manager.End(context.Background(), sess.ID))

	app := fiber.New()
	app.Use(ResolveActor(manager))
	app.Get("/private", RequireActor, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResolveActor_StoreFailureIsAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(ResolveActor(failingResolver{}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"anonymous": Actor(c).Anonymous()})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["anonymous"])
}

func TestActor_WithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.True(t, Actor(c).Anonymous())
		assert.True(t, ActorFromContext(c.UserContext()).Anonymous())
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestContextMiddleware_CarriesActor(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals(actorLocalsKey, models.Actor{UserID: 5})
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		assert.Equal(t, "req-1", ctx.Value(RequestIDKey))
		assert.Equal(t, uint(5), ctx.Value(UserIDKey))
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
