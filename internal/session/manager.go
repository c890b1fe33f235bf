package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/models"
)

// Manager starts, resolves and ends sessions.
type Manager struct {
	store  Store
	tokens *TokenCodec
	ttl    time.Duration
	now    func() time.Time
}

// NewManager wires a store and token codec. ttl is the session lifetime.
func NewManager(store Store, tokens *TokenCodec, ttl time.Duration) *Manager {
	return &Manager{store: store, tokens: tokens, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start creates a session for userID and signs its token.
func (m *Manager) Start(ctx context.Context, userID uint) (*Session, error) {
	sess := newSession(userID, m.now().UTC(), m.ttl)

	token, err := m.tokens.Sign(sess)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	sess.Token = token
	return sess, nil
}

// Resolve turns a token into the actor it stands for. Invalid tokens and
// ended sessions resolve to the anonymous actor with a nil error; only
// store failures are returned.
func (m *Manager) Resolve(ctx context.Context, token string) (models.Actor, error) {
	if token == "" {
		return models.Actor{}, nil
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		return models.Actor{}, nil
	}

	sess, err := m.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Actor{}, nil
		}
		return models.Actor{}, err
	}
	if sess.UserID != claims.UserID || sess.Expired(m.now()) {
		return models.Actor{}, nil
	}

	return models.Actor{UserID: sess.UserID, SessionID: sess.ID}, nil
}

// End deletes a session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}
