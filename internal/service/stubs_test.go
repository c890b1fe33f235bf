package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/media"
	"inkwell/internal/models"

	"github.com/stretchr/testify/require"
)

// txStub runs the unit of work inline.
type txStub struct {
	calls int
}

func (s *txStub) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return fn(ctx)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint) (*models.Post, error)
	authorOfFn    func(context.Context, uint) (uint, error)
	listFn        func(context.Context) ([]*models.Post, error)
	searchFn      func(context.Context, string) ([]*models.Post, error)
	listByTagFn   func(context.Context, uint) ([]*models.Post, error)
	listLikedByFn func(context.Context, uint) ([]*models.Post, error)
	updateFn      func(context.Context, *models.Post) error
	deleteFn      func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) AuthorOf(ctx context.Context, id uint) (uint, error) {
	return s.authorOfFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context) ([]*models.Post, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) Search(ctx context.Context, query string) ([]*models.Post, error) {
	return s.searchFn(ctx, query)
}
func (s *postRepoStub) ListByTag(ctx context.Context, tagID uint) ([]*models.Post, error) {
	return s.listByTagFn(ctx, tagID)
}
func (s *postRepoStub) ListLikedBy(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.listLikedByFn(ctx, userID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		authorOfFn:    func(_ context.Context, _ uint) (uint, error) { return 1, nil },
		listFn:        func(_ context.Context) ([]*models.Post, error) { return nil, nil },
		searchFn:      func(_ context.Context, _ string) ([]*models.Post, error) { return nil, nil },
		listByTagFn:   func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
		listLikedByFn: func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	ensureByNamesFn func(context.Context, []string) ([]models.Tag, error)
	getByIDFn       func(context.Context, uint) (*models.Tag, error)
	linkPostFn      func(context.Context, uint, []uint) error
	unlinkPostFn    func(context.Context, uint) error
	countsFn        func(context.Context, bool) ([]models.TagCount, error)
}

func (s *tagRepoStub) EnsureByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	return s.ensureByNamesFn(ctx, names)
}
func (s *tagRepoStub) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	return s.getByIDFn(ctx, id)
}
func (s *tagRepoStub) LinkPost(ctx context.Context, postID uint, tagIDs []uint) error {
	return s.linkPostFn(ctx, postID, tagIDs)
}
func (s *tagRepoStub) UnlinkPost(ctx context.Context, postID uint) error {
	return s.unlinkPostFn(ctx, postID)
}
func (s *tagRepoStub) Counts(ctx context.Context, includeUnused bool) ([]models.TagCount, error) {
	return s.countsFn(ctx, includeUnused)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		ensureByNamesFn: func(_ context.Context, names []string) ([]models.Tag, error) {
			tags := make([]models.Tag, len(names))
			for i, n := range names {
				tags[i] = models.Tag{ID: uint(i + 1), Name: n}
			}
			return tags, nil
		},
		getByIDFn:    func(_ context.Context, id uint) (*models.Tag, error) { return &models.Tag{ID: id}, nil },
		linkPostFn:   func(_ context.Context, _ uint, _ []uint) error { return nil },
		unlinkPostFn: func(_ context.Context, _ uint) error { return nil },
		countsFn:     func(_ context.Context, _ bool) ([]models.TagCount, error) { return nil, nil },
	}
}

// mediaStub records saves and removals.
type mediaStub struct {
	saveErr error
	saved   []string
	removed []string
}

func (s *mediaStub) Save(_ context.Context, kind media.Kind, up media.Upload) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	relPath := "uploads/" + string(kind) + "/" + up.Filename
	s.saved = append(s.saved, relPath)
	return relPath, nil
}

func (s *mediaStub) Remove(_ context.Context, relPath string) bool {
	s.removed = append(s.removed, relPath)
	return true
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	require.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
