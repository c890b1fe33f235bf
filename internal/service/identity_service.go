package service

import (
	"context"
	"log/slog"
	"strings"

	"inkwell/internal/credentials"
	"inkwell/internal/database"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/session"
	"inkwell/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// IdentityService registers users and manages their sessions.
type IdentityService struct {
	tx       database.Transactor
	users    repository.UserRepository
	hasher   credentials.Hasher
	sessions *session.Manager
	media    media.Store
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is a started session and the user it belongs to.
type LoginResult struct {
	Session *session.Session
	User    *models.User
}

func NewIdentityService(
	tx database.Transactor,
	users repository.UserRepository,
	hasher credentials.Hasher,
	sessions *session.Manager,
	store media.Store,
) *IdentityService {
	return &IdentityService{
		tx:       tx,
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		media:    store,
	}
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "IdentityService.Register")
	defer func() { observability.EndSpan(span, err) }()

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, models.NewValidationError("Username, email and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if credentials.IsTooLong(err) {
			return nil, models.NewValidationError("Password is too long")
		}
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewConflictError("Username or email already taken")
		}
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("user_registered").Inc()
	return user, nil
}

// Authenticate checks credentials and starts a session. Unknown users and
// wrong passwords fail the same way.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (res *LoginResult, err error) {
	ctx, span := observability.StartSpan(ctx, "IdentityService.Authenticate")
	defer func() { observability.EndSpan(span, err) }()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		observability.AuthAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordDigest) {
		observability.AuthAttempts.WithLabelValues("invalid").Inc()
		return nil, models.NewInvalidCredentialsError()
	}

	sess, err := s.sessions.Start(ctx, user.ID)
	if err != nil {
		observability.AuthAttempts.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}

	observability.AuthAttempts.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("user.id", int(user.ID)))
	return &LoginResult{Session: sess, User: user}, nil
}

func (s *IdentityService) CurrentIdentity(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.Anonymous() {
		return nil, models.NewAuthenticationError("Not logged in")
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewAuthenticationError("Not logged in")
		}
		return nil, err
	}
	return user, nil
}

// Logout ends the actor's session. Anonymous actors are a no-op, and a
// session store failure is logged rather than returned.
func (s *IdentityService) Logout(ctx context.Context, actor models.Actor) error {
	if actor.SessionID == "" {
		return nil
	}
	if err := s.sessions.End(ctx, actor.SessionID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete session on logout",
			slog.Uint64("user_id", uint64(actor.UserID)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// UpdateProfileImage replaces the actor's profile image. The previous image
// is removed once the new path is stored.
func (s *IdentityService) UpdateProfileImage(ctx context.Context, actor models.Actor, up media.Upload) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "IdentityService.UpdateProfileImage")
	defer func() { observability.EndSpan(span, err) }()

	user, err = s.CurrentIdentity(ctx, actor)
	if err != nil {
		return nil, err
	}

	relPath, err := storeImage(ctx, s.media, media.KindProfile, up)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfileImage(ctx, user.ID, &relPath); err != nil {
		removeImage(ctx, s.media, relPath)
		return nil, err
	}

	if user.ProfileImagePath != nil {
		removeImage(ctx, s.media, *user.ProfileImagePath)
	}
	user.ProfileImagePath = &relPath
	return user, nil
}

// ListUsers returns every user, newest first.
func (s *IdentityService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
