package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	AuthorOf(ctx context.Context, id uint) (uint, error)
	List(ctx context.Context) ([]*models.Post, error)
	Search(ctx context.Context, query string) ([]*models.Post, error)
	ListByTag(ctx context.Context, tagID uint) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := database.Conn(ctx, r.db).Create(post).Error; err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := applyPostDetails(database.Conn(ctx, r.db)).
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewStorageError(err)
	}

	if err := r.loadTags(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

// AuthorOf returns the author id of a post without loading aggregates.
func (r *postRepository) AuthorOf(ctx context.Context, id uint) (uint, error) {
	var post models.Post
	err := database.Conn(ctx, r.db).
		Select("id", "author_id").
		Where("id = ?", id).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundError("Post", id)
		}
		return 0, models.NewStorageError(err)
	}
	return post.AuthorID, nil
}

// List returns every post, newest first.
func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(database.Conn(ctx, r.db)).
		Order("posts.created_at DESC, posts.id DESC"))
}

// Search matches query as a case-insensitive substring of title or content.
func (r *postRepository) Search(ctx context.Context, query string) ([]*models.Post, error) {
	pattern := containsPattern(query)
	return r.find(ctx, applyPostDetails(database.Conn(ctx, r.db)).
		Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("posts.created_at DESC, posts.id DESC"))
}

func (r *postRepository) ListByTag(ctx context.Context, tagID uint) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(database.Conn(ctx, r.db)).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", tagID).
		Order("posts.created_at DESC, posts.id DESC"))
}

// ListLikedBy returns the posts a user liked, most recently liked first.
func (r *postRepository) ListLikedBy(ctx context.Context, userID uint) ([]*models.Post, error) {
	return r.find(ctx, applyPostDetails(database.Conn(ctx, r.db)).
		Joins("JOIN likes AS liked ON liked.post_id = posts.id").
		Where("liked.user_id = ?", userID).
		Order("liked.created_at DESC, posts.id DESC"))
}

// Update writes title and content and stamps updated_at.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	result := database.Conn(ctx, r.db).
		Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title":      post.Title,
			"content":    post.Content,
			"updated_at": post.UpdatedAt,
		})
	if result.Error != nil {
		return models.NewStorageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete removes a post and everything hanging off it. Callers run it inside
// a transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	db := database.Conn(ctx, r.db)

	if err := db.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
		return models.NewStorageError(err)
	}
	if err := db.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return models.NewStorageError(err)
	}
	if err := db.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewStorageError(err)
	}

	result := db.Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewStorageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) find(ctx context.Context, query *gorm.DB) ([]*models.Post, error) {
	posts := []*models.Post{}
	if err := query.Find(&posts).Error; err != nil {
		return nil, models.NewStorageError(err)
	}
	if err := r.loadTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// applyPostDetails selects the author name and like/comment counts in a single query.
func applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Select("posts.*, " +
			"users.username AS author_username, " +
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count, " +
			"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count").
		Joins("JOIN users ON users.id = posts.author_id")
}

type postTagRow struct {
	PostID uint
	TagID  uint
	Name   string
}

// loadTags fills Tags on every post with one query, names ascending.
func (r *postRepository) loadTags(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		p.Tags = []models.Tag{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var rows []postTagRow
	err := database.Conn(ctx, r.db).
		Table("post_tags").
		Select("post_tags.post_id, post_tags.tag_id, tags.name").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id IN ?", ids).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return models.NewStorageError(err)
	}

	for _, row := range rows {
		if p, ok := byID[row.PostID]; ok {
			p.Tags = append(p.Tags, models.Tag{ID: row.TagID, Name: row.Name})
		}
	}
	return nil
}
