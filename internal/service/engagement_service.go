package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EngagementService handles comments and likes.
type EngagementService struct {
	tx       database.Transactor
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
	users    repository.UserRepository
}

const maxCommentLen = 10000

func NewEngagementService(
	tx database.Transactor,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	users repository.UserRepository,
) *EngagementService {
	return &EngagementService{
		tx:       tx,
		posts:    posts,
		comments: comments,
		likes:    likes,
		users:    users,
	}
}

func (s *EngagementService) AddComment(ctx context.Context, actor models.Actor, postID uint, content string) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "EngagementService.AddComment",
		attribute.Int("post.id", int(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if actor.Anonymous() {
		return nil, models.NewAuthenticationError("You must be logged in to comment")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment = &models.Comment{
		PostID:   postID,
		AuthorID: actor.UserID,
		Content:  content,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.posts.AuthorOf(ctx, postID); err != nil {
			return err
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		author, err := s.users.GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		comment.AuthorUsername = author.Username
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("comment_added").Inc()
	return comment, nil
}

// ListComments returns a post's comments, oldest first.
func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.posts.AuthorOf(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// ToggleLike flips the actor's like on a post and returns the new state.
func (s *EngagementService) ToggleLike(ctx context.Context, actor models.Actor, postID uint) (res *models.LikeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "EngagementService.ToggleLike",
		attribute.Int("post.id", int(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if actor.Anonymous() {
		return nil, models.NewAuthenticationError("You must be logged in to like a post")
	}

	res = &models.LikeResult{}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.posts.AuthorOf(ctx, postID); err != nil {
			return err
		}

		liked, err := s.likes.Exists(ctx, actor.UserID, postID)
		if err != nil {
			return err
		}
		if liked {
			if err := s.likes.Delete(ctx, actor.UserID, postID); err != nil {
				return err
			}
			res.Action = models.LikeActionUnliked
		} else {
			if err := s.likes.Insert(ctx, actor.UserID, postID); err != nil {
				return err
			}
			res.Action = models.LikeActionLiked
			res.Liked = true
		}

		count, err := s.likes.CountForPost(ctx, postID)
		if err != nil {
			return err
		}
		res.LikeCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.LikeToggles.WithLabelValues(string(res.Action)).Inc()
	return res, nil
}

// LikesForPost returns who liked a post, most recent first.
func (s *EngagementService) LikesForPost(ctx context.Context, postID uint) ([]models.Liker, error) {
	if _, err := s.posts.AuthorOf(ctx, postID); err != nil {
		return nil, err
	}
	return s.likes.ListForPost(ctx, postID)
}

// LikedPostsForUser returns the posts a user liked, most recently liked first.
func (s *EngagementService) LikedPostsForUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.ListLikedBy(ctx, userID)
}
