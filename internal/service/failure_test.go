package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/credentials"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// deleteFailingStore keeps sessions in memory but cannot delete them.
type deleteFailingStore struct {
	session.Store
}

func (deleteFailingStore) Delete(context.Context, string) error {
	return errors.New("redis down")
}

func TestLogout_StoreFailureIsNotReturned(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	sessions := session.NewManager(deleteFailingStore{Store: session.NewMemoryStore()}, session.NewTokenCodec("test-secret"), time.Hour)
	identity := NewIdentityService(
		database.NewTransactor(s.db),
		repository.NewUserRepository(s.db),
		&credentials.BcryptHasher{Cost: bcrypt.MinCost},
		sessions,
		nil,
	)

	assert.NoError(t, identity.Logout(ctx, models.Actor{UserID: 1, SessionID: "abc"}))
}

// linkFailingTags fails every LinkPost after the first allowed calls.
type linkFailingTags struct {
	repository.TagRepository
	allowed int
}

func (r *linkFailingTags) LinkPost(ctx context.Context, postID uint, tagIDs []uint) error {
	if r.allowed > 0 {
		r.allowed--
		return r.TagRepository.LinkPost(ctx, postID, tagIDs)
	}
	return errors.New("link failed")
}

func TestScenario_FailedTagReplacementRollsBackUpdate(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")

	tags := &linkFailingTags{TagRepository: repository.NewTagRepository(s.db), allowed: 1}
	posts := NewPostService(database.NewTransactor(s.db), repository.NewPostRepository(s.db), tags, nil)

	post, err := posts.CreatePost(ctx, alice, CreatePostInput{Title: "Orig", Content: "body", Tags: []string{"go"}})
	require.NoError(t, err)

	_, err = posts.UpdatePost(ctx, alice, UpdatePostInput{PostID: post.ID, Title: "Changed", Content: "new body", Tags: []string{"rust"}})
	require.Error(t, err)

	got, err := s.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Orig", got.Title)
	assert.Equal(t, "body", got.Content)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "go", got.Tags[0].Name)
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")

	// 300 multi-byte runes are within the title limit.
	title := strings.Repeat("é", 150) + strings.Repeat("语", 150)
	post, err := s.posts.CreatePost(ctx, alice, CreatePostInput{Title: title})
	require.NoError(t, err)

	_, err = s.posts.CreatePost(ctx, alice, CreatePostInput{Title: title + "x"})
	assertValidationError(t, err)

	_, err = s.engagement.AddComment(ctx, alice, post.ID, strings.Repeat("語", maxCommentLen))
	require.NoError(t, err)

	_, err = s.engagement.AddComment(ctx, alice, post.ID, strings.Repeat("語", maxCommentLen+1))
	assertValidationError(t, err)
}
