// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the author of posts and comments. Accounts are managed outside the
// board; the table exists so authors can be resolved for display. Its JSON
// form is the author summary shown next to posts and comments.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"-"`
	Password  string         `gorm:"not null" json:"-"`
	Avatar    string         `json:"avatar"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
