package repository

import (
	"context"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for the like relation.
type LikeRepository interface {
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	Insert(ctx context.Context, userID, postID uint) error
	Delete(ctx context.Context, userID, postID uint) error
	CountForPost(ctx context.Context, postID uint) (int64, error)
	ListForPost(ctx context.Context, postID uint) ([]models.Liker, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, models.NewStorageError(err)
	}
	return count > 0, nil
}

// Insert adds the pair. An existing pair is left as is.
func (r *likeRepository) Insert(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
	err := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
	if err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, postID uint) error {
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (r *likeRepository) CountForPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, models.NewStorageError(err)
	}
	return count, nil
}

type likerRow struct {
	UserID           uint
	Username         string
	ProfileImagePath *string
	UserCreatedAt    time.Time
	LikedAt          time.Time
}

// ListForPost returns who liked a post, most recent first.
func (r *likeRepository) ListForPost(ctx context.Context, postID uint) ([]models.Liker, error) {
	var rows []likerRow
	err := database.Conn(ctx, r.db).
		Table("likes").
		Select("users.id AS user_id, users.username, users.profile_image_path, " +
			"users.created_at AS user_created_at, likes.created_at AS liked_at").
		Joins("JOIN users ON users.id = likes.user_id").
		Where("likes.post_id = ?", postID).
		Order("likes.created_at DESC, users.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewStorageError(err)
	}

	likers := make([]models.Liker, 0, len(rows))
	for _, row := range rows {
		likers = append(likers, models.Liker{
			User: models.User{
				ID:               row.UserID,
				Username:         row.Username,
				ProfileImagePath: row.ProfileImagePath,
				CreatedAt:        row.UserCreatedAt,
			},
			LikedAt: row.LikedAt,
		})
	}
	return likers, nil
}
