package models

import "time"

// Wine is a catalog entry. The API never mutates it; only the seeder writes.
type Wine struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id" yaml:"-"`
	Name      string    `gorm:"size:255;not null" json:"name" yaml:"name"`
	Winery    string    `gorm:"size:255" json:"winery" yaml:"winery"`
	Country   string    `gorm:"size:128" json:"country" yaml:"country"`
	Grape     string    `gorm:"size:128" json:"grape" yaml:"grape"`
	Year      int       `json:"year" yaml:"year"`
	ImageURL  string    `gorm:"size:2048" json:"imageUrl,omitempty" yaml:"imageUrl"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}
