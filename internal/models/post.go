package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Post is a travel write-up ("tour") together with its engagement counters.
type Post struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"not null;index" json:"author_id"`
	Author       User        `gorm:"foreignKey:UserID" json:"author"`
	Title        string      `gorm:"not null" json:"title"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	Destinations StringSlice `gorm:"type:text;not null" json:"destinations"`
	Course       string      `gorm:"not null" json:"course"`
	Cost         string      `gorm:"not null" json:"cost"`
	NumLikes     int         `gorm:"not null;default:0" json:"num_likes"`
	NumComments  int         `gorm:"not null;default:0" json:"num_comments"`
	NumReads     int         `gorm:"not null;default:0" json:"num_reads"`
	// CreatedAt is set once on insert and never rewritten by edits.
	CreatedAt time.Time      `gorm:"index;<-:create" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	// TitleSearch and ContentSearch hold lowercased copies matched by search.
	TitleSearch   string `gorm:"type:text;not null;default:''" json:"-"`
	ContentSearch string `gorm:"type:text;not null;default:''" json:"-"`
}

// BeforeCreate fills the folded search columns.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	p.RefreshSearchFields()
	return nil
}

// RefreshSearchFields recomputes TitleSearch and ContentSearch from Title
// and Content.
func (p *Post) RefreshSearchFields() {
	p.TitleSearch = FoldSearch(p.Title)
	p.ContentSearch = FoldSearch(p.Content)
}

// FoldSearch lowercases s with Unicode case mapping, independent of the
// database's own LOWER().
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// PostPage is the page descriptor returned by a paginated listing.
type PostPage struct {
	Items      []*Post `json:"items"`
	Term       string  `json:"term,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalCount int64   `json:"total_count"`
	TotalPages int     `json:"total_pages"`
}

// NewPostPage builds a page descriptor. TotalPages is at least 1 so an empty
// result still renders as "page 1 of 1".
func NewPostPage(items []*Post, term string, page, limit int, total int64) *PostPage {
	if items == nil {
		items = []*Post{}
	}
	pages := 1
	if limit > 0 && total > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PostPage{
		Items:      items,
		Term:       term,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: pages,
	}
}

// PostDetail is a post with its comments, as shown on the detail page.
type PostDetail struct {
	Post     *Post      `json:"tour"`
	Comments []*Comment `json:"comments"`
}

// ParseDestinations splits a whitespace-separated destination string into
// trimmed, non-empty tokens. "Seoul Busan" yields ["Seoul", "Busan"].
func ParseDestinations(raw string) StringSlice {
	fields := strings.Fields(raw)
	out := make(StringSlice, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}
