package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

type TagService struct {
	tags  repository.TagRepository
	posts repository.PostRepository
}

func NewTagService(tags repository.TagRepository, posts repository.PostRepository) *TagService {
	return &TagService{tags: tags, posts: posts}
}

// ListTags returns every tag with its post count, unused tags included.
func (s *TagService) ListTags(ctx context.Context) ([]models.TagCount, error) {
	return s.tags.Counts(ctx, true)
}

// ActiveTags returns the tags carried by at least one post.
func (s *TagService) ActiveTags(ctx context.Context) ([]models.TagCount, error) {
	return s.tags.Counts(ctx, false)
}

// PostsForTag returns the tag and its posts, newest first.
func (s *TagService) PostsForTag(ctx context.Context, tagID uint) (*models.Tag, []*models.Post, error) {
	tag, err := s.tags.GetByID(ctx, tagID)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.posts.ListByTag(ctx, tagID)
	if err != nil {
		return nil, nil, err
	}
	return tag, posts, nil
}
