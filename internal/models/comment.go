package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply bound to exactly one post. PostID carries no foreign key
// constraint: comments outlive the post they were written on.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UserID    uint           `gorm:"not null;index" json:"author_id"`
	Author    User           `gorm:"foreignKey:UserID" json:"author"`
	PostID    uint           `gorm:"not null;index;<-:create" json:"post_id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
