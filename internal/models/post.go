package models

import "time"

// Post is an article written by a single author.
type Post struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AuthorID       uint      `gorm:"not null;index" json:"author_id"`
	Title          string    `gorm:"not null" json:"title"`
	Content        string    `gorm:"type:text;not null;default:''" json:"content"`
	CoverImagePath *string   `json:"cover_image_path"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// AuthorUsername is not persisted; joined at query time
	AuthorUsername string `gorm:"->;-:migration" json:"author_username"`
	// LikeCount is not persisted; computed at query time
	LikeCount int `gorm:"->;-:migration" json:"like_count"`
	// CommentCount is not persisted; computed at query time
	CommentCount int `gorm:"->;-:migration" json:"comment_count"`
	// Tags is loaded separately from post_tags
	Tags []Tag `gorm:"-" json:"tags"`
}

// Comment is a reader's remark on a post. Comments are never edited.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	AuthorUsername string `gorm:"->;-:migration" json:"author_username"`
}

// Like records that a user liked a post. The pair is the primary key.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeAction is the outcome of a like toggle.
type LikeAction string

const (
	LikeActionLiked   LikeAction = "liked"
	LikeActionUnliked LikeAction = "unliked"
)

// Liker is a user who liked a post, with the time of the like.
type Liker struct {
	User    User      `json:"user"`
	LikedAt time.Time `json:"liked_at"`
}

// LikeResult reports the state of a like after a toggle.
type LikeResult struct {
	Action    LikeAction `json:"action"`
	Liked     bool       `json:"liked"`
	LikeCount int64      `json:"like_count"`
}
