package middleware

import (
	"context"
	"log/slog"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

const actorLocalsKey = "actor"

type actorCtxKey struct{}

// ActorResolver turns a session token into the actor it stands for.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (models.Actor, error)
}

// ResolveActor attaches the request's actor to Fiber locals and the user
// context. Requests without a valid session continue as anonymous.
func ResolveActor(resolver ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := resolver.Resolve(c.UserContext(), tokenFromRequest(c))
		if err != nil {
			Logger.WarnContext(c.UserContext(), "session lookup failed, continuing anonymously",
				slog.String("error", err.Error()))
			actor = models.Actor{}
		}

		c.Locals(actorLocalsKey, actor)
		c.SetUserContext(context.WithValue(c.UserContext(), actorCtxKey{}, actor))
		return c.Next()
	}
}

// RequireActor rejects anonymous requests with 401.
func RequireActor(c *fiber.Ctx) error {
	if Actor(c).Anonymous() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthenticationError("Authentication required"))
	}
	return c.Next()
}

// Actor returns the actor resolved for this request, anonymous if none.
func Actor(c *fiber.Ctx) models.Actor {
	actor, _ := actorFromLocals(c)
	return actor
}

// ActorFromContext returns the actor stored by ResolveActor.
func ActorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorCtxKey{}).(models.Actor)
	return actor
}

func actorFromLocals(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(actorLocalsKey).(models.Actor)
	return actor, ok
}

// tokenFromRequest prefers a Bearer header over the session cookie.
func tokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookie)
}
