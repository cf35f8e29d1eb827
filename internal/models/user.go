// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a local account bound to exactly one identity-provider subject.
type User struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	DisplayName       string    `gorm:"size:255;not null" json:"displayName"`
	Email             string    `gorm:"size:320;not null" json:"email"`
	AvatarURL         string    `gorm:"size:2048" json:"avatarUrl,omitempty"`
	ExternalSubjectID string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// UserSummary is the denormalized author block embedded in comment views.
type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Summary returns the rendering subset of u.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
