package repository

import (
	"context"
	"errors"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines persistence operations for tags and post links.
type TagRepository interface {
	EnsureByNames(ctx context.Context, names []string) ([]models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	LinkPost(ctx context.Context, postID uint, tagIDs []uint) error
	UnlinkPost(ctx context.Context, postID uint) error
	Counts(ctx context.Context, includeUnused bool) ([]models.TagCount, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// EnsureByNames returns a tag row for every name, creating missing ones.
// Names must already be normalized.
func (r *tagRepository) EnsureByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	db := database.Conn(ctx, r.db)

	fresh := make([]models.Tag, 0, len(names))
	for _, name := range names {
		fresh = append(fresh, models.Tag{Name: name})
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, models.NewStorageError(err)
	}

	var tags []models.Tag
	if err := db.Where("name IN ?", names).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, models.NewStorageError(err)
	}
	return tags, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := database.Conn(ctx, r.db).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag", id)
		}
		return nil, models.NewStorageError(err)
	}
	return &tag, nil
}

// LinkPost associates tags with a post, ignoring links that already exist.
func (r *tagRepository) LinkPost(ctx context.Context, postID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]models.PostTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, models.PostTag{PostID: postID, TagID: id})
	}
	err := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
	if err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (r *tagRepository) UnlinkPost(ctx context.Context, postID uint) error {
	if err := database.Conn(ctx, r.db).Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

// Counts returns tags with the number of posts carrying them, busiest first
// then by name. Unused tags are left out unless includeUnused is set.
func (r *tagRepository) Counts(ctx context.Context, includeUnused bool) ([]models.TagCount, error) {
	query := database.Conn(ctx, r.db).
		Table("tags").
		Select("tags.id, tags.name, COUNT(post_tags.post_id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id, tags.name")
	if !includeUnused {
		query = query.Having("COUNT(post_tags.post_id) > 0")
	}

	counts := []models.TagCount{}
	if err := query.Order("post_count DESC, tags.name ASC").Scan(&counts).Error; err != nil {
		return nil, models.NewStorageError(err)
	}
	return counts, nil
}
