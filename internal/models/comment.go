package models

import "time"

// Comment is a text annotation on a review.
type Comment struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	ReviewID  string       `gorm:"size:36;not null;index" json:"reviewId"`
	AuthorID  string       `gorm:"size:36;not null;index" json:"authorId"`
	Text      string       `gorm:"type:text;not null" json:"text"`
	Author    *UserSummary `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time    `gorm:"index;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime:false" json:"updatedAt"`
}
