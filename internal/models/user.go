// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered author or reader.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordDigest   string    `gorm:"column:password_digest;not null" json:"-"`
	ProfileImagePath *string   `json:"profile_image_path"`
	CreatedAt        time.Time `json:"created_at"`
}

// Actor is the identity behind the current request. The zero value is anonymous.
type Actor struct {
	UserID    uint
	SessionID string
}

// Anonymous reports whether no user is attached to the request.
func (a Actor) Anonymous() bool {
	return a.UserID == 0
}
