package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxCommentLen = 10000

// ValidateCommentText rejects blank text and text over MaxCommentLen characters.
func ValidateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLen {
		return fmt.Errorf("comment text must be at most %d characters", MaxCommentLen)
	}
	return nil
}
