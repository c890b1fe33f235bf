package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/database"
	"inkwell/internal/media"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	tx    database.Transactor
	posts repository.PostRepository
	tags  repository.TagRepository
	media media.Store
}

type CreatePostInput struct {
	Title   string
	Content string
	Cover   *media.Upload
	Tags    []string
}

// UpdatePostInput replaces title, content and the whole tag set. A nil
// Tags clears every tag.
type UpdatePostInput struct {
	PostID  uint
	Title   string
	Content string
	Tags    []string
}

const (
	maxTitleLen   = 300
	maxContentLen = 50000
)

func NewPostService(
	tx database.Transactor,
	posts repository.PostRepository,
	tags repository.TagRepository,
	store media.Store,
) *PostService {
	return &PostService{
		tx:    tx,
		posts: posts,
		tags:  tags,
		media: store,
	}
}

func validatePostFields(title, content string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, actor models.Actor, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if actor.Anonymous() {
		return nil, models.NewValidationError("You must be logged in to create a post")
	}
	title := strings.TrimSpace(in.Title)
	if err := validatePostFields(title, in.Content); err != nil {
		return nil, err
	}

	var coverPath string
	if in.Cover != nil {
		coverPath, err = storeImage(ctx, s.media, media.KindPost, *in.Cover)
		if err != nil {
			return nil, err
		}
	}

	created := &models.Post{
		AuthorID: actor.UserID,
		Title:    title,
		Content:  in.Content,
	}
	if coverPath != "" {
		created.CoverImagePath = &coverPath
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.posts.Create(ctx, created); err != nil {
			return err
		}
		return s.applyTags(ctx, created.ID, in.Tags)
	})
	if err != nil {
		removeImage(ctx, s.media, coverPath)
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("post_created").Inc()
	span.SetAttributes(attribute.Int("post.id", int(created.ID)))
	return s.posts.GetByID(ctx, created.ID)
}

func (s *PostService) UpdatePost(ctx context.Context, actor models.Actor, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost",
		attribute.Int("post.id", int(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	if actor.Anonymous() {
		return nil, models.NewAuthenticationError("You must be logged in to edit a post")
	}
	title := strings.TrimSpace(in.Title)
	if err := validatePostFields(title, in.Content); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requireAuthor(ctx, actor, in.PostID, "edit"); err != nil {
			return err
		}
		if err := s.posts.Update(ctx, &models.Post{ID: in.PostID, Title: title, Content: in.Content}); err != nil {
			return err
		}
		if err := s.tags.UnlinkPost(ctx, in.PostID); err != nil {
			return err
		}
		return s.applyTags(ctx, in.PostID, in.Tags)
	})
	if err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("post_updated").Inc()
	return s.posts.GetByID(ctx, in.PostID)
}

// DeletePost removes a post with its comments, likes and tag links. The
// cover image is removed after the transaction commits.
func (s *PostService) DeletePost(ctx context.Context, actor models.Actor, postID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost",
		attribute.Int("post.id", int(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if actor.Anonymous() {
		return models.NewAuthenticationError("You must be logged in to delete a post")
	}

	var coverPath string
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != actor.UserID {
			return models.NewAuthorizationError("You can only delete your own posts")
		}
		if post.CoverImagePath != nil {
			coverPath = *post.CoverImagePath
		}
		return s.posts.Delete(ctx, postID)
	})
	if err != nil {
		return err
	}

	removeImage(ctx, s.media, coverPath)
	observability.ContentEvents.WithLabelValues("post_deleted").Inc()
	return nil
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.posts.List(ctx)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// SearchPosts matches query against title and content. A blank query
// matches nothing.
func (s *PostService) SearchPosts(ctx context.Context, query string) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Post{}, nil
	}
	return s.posts.Search(ctx, query)
}

func (s *PostService) requireAuthor(ctx context.Context, actor models.Actor, postID uint, verb string) error {
	authorID, err := s.posts.AuthorOf(ctx, postID)
	if err != nil {
		return err
	}
	if authorID != actor.UserID {
		return models.NewAuthorizationError("You can only " + verb + " your own posts")
	}
	return nil
}

// applyTags links postID to the normalized names, creating missing tags.
func (s *PostService) applyTags(ctx context.Context, postID uint, names []string) error {
	normalized := models.NormalizeTagNames(names)
	if len(normalized) == 0 {
		return nil
	}

	tags, err := s.tags.EnsureByNames(ctx, normalized)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return s.tags.LinkPost(ctx, postID, ids)
}
