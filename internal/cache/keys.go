package cache

import "fmt"

const (
	rateLimitKeyFormat    = "rl:%s:%s"
	revokedTokenKeyFormat = "session:revoked:%s"
)

// RateLimitKey is the counter key for subject hitting resource.
func RateLimitKey(resource, subject string) string {
	return fmt.Sprintf(rateLimitKeyFormat, resource, subject)
}

// RevokedTokenKey marks a session token id as revoked.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(revokedTokenKeyFormat, jti)
}
