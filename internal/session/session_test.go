package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters!!"

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	sess := newSession(7, time.Now(), time.Hour)

	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, mr.Exists("session:"+sess.ID))
	ttl := mr.TTL("session:" + sess.ID)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %v", ttl)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)

	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	sess := newSession(7, time.Now(), time.Minute)

	require.NoError(t, store.Save(ctx, sess))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_RejectsExpiredSession(t *testing.T) {
	store, _ := newRedisStore(t)
	sess := newSession(7, time.Now().Add(-2*time.Hour), time.Hour)
	assert.Error(t, store.Save(context.Background(), sess))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()
	sess := newSession(3, now, time.Minute)

	require.NoError(t, store.Save(ctx, sess))
	_, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec(testSecret)
	sess := newSession(42, time.Now(), time.Hour)

	raw, err := codec.Sign(sess)
	require.NoError(t, err)

	claims, err := codec.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, claims.SessionID)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestTokenCodec_Rejects(t *testing.T) {
	codec := NewTokenCodec(testSecret)
	sess := newSession(42, time.Now(), time.Hour)
	raw, err := codec.Sign(sess)
	require.NoError(t, err)

	otherKey, err := NewTokenCodec("a-completely-different-secret-value").Sign(sess)
	require.NoError(t, err)

	expired, err := codec.Sign(newSession(42, time.Now().Add(-3*time.Hour), time.Hour))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   "42",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"tampered":     raw + "x",
		"wrong secret": otherKey,
		"expired":      expired,
		"alg none":     unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenCodec_RequiresSecret(t *testing.T) {
	_, err := NewTokenCodec("").Sign(newSession(1, time.Now(), time.Hour))
	assert.Error(t, err)
}

func TestManager_Lifecycle(t *testing.T) {
	store, _ := newRedisStore(t)
	m := NewManager(store, NewTokenCodec(testSecret), time.Hour)
	ctx := context.Background()

	sess, err := m.Start(ctx, 9)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	actor, err := m.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), actor.UserID)
	assert.Equal(t, sess.ID, actor.SessionID)

	require.NoError(t, m.End(ctx, sess.ID))
	actor, err = m.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, actor.Anonymous(), "an ended session must not authenticate")

	require.NoError(t, m.End(ctx, sess.ID))
	require.NoError(t, m.End(ctx, ""))
}

func TestManager_ResolveAnonymous(t *testing.T) {
	m := NewManager(NewMemoryStore(), NewTokenCodec(testSecret), time.Hour)
	ctx := context.Background()

	for _, token := range []string{"", "junk"} {
		actor, err := m.Resolve(ctx, token)
		require.NoError(t, err)
		assert.True(t, actor.Anonymous())
	}
}

func TestManager_ResolveRejectsSubjectMismatch(t *testing.T) {
	store := NewMemoryStore()
	codec := NewTokenCodec(testSecret)
	m := NewManager(store, codec, time.Hour)
	ctx := context.Background()

	sess, err := m.Start(ctx, 1)
	require.NoError(t, err)

	forged := *sess
	forged.UserID = 2
	token, err := codec.Sign(&forged)
	require.NoError(t, err)

	actor, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.True(t, actor.Anonymous())
}
