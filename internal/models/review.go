package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of one wine.
type Review struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	AuthorID string `gorm:"size:36;not null;index" json:"authorId"`
	WineID   string `gorm:"size:36;not null;index" json:"wineId"`
	Rating   int    `gorm:"not null" json:"rating"`
	Notes    string `gorm:"type:text" json:"notes,omitempty"`
	ImageURL string `gorm:"size:2048" json:"imageUrl,omitempty"`
	// CommentCount is not persisted; computed from the comments table on every read
	CommentCount int64     `gorm:"-" json:"commentCount"`
	CreatedAt    time.Time `gorm:"index;autoCreateTime:false" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}
