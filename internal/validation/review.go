// Package validation holds the structural checks applied on every write path.
// Checks return plain errors; services wrap them into InvalidInput.
package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"vinoteca/internal/models"
)

const (
	MaxNotesLen    = 5000
	MaxImageURLLen = 2048
)

// ValidateRating checks that rating is within the inclusive star range.
func ValidateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", models.MinRating, models.MaxRating, rating)
	}
	return nil
}

// ValidateNotes bounds free-text tasting notes. Empty notes are allowed.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		return fmt.Errorf("notes must be at most %d characters", MaxNotesLen)
	}
	return nil
}

// ValidateImageURL accepts an empty string or an absolute http(s) URL.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxImageURLLen {
		return fmt.Errorf("imageUrl must be at most %d characters", MaxImageURLLen)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("imageUrl is not a valid URL")
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return fmt.Errorf("imageUrl must be an absolute http or https URL")
	}
	return nil
}
