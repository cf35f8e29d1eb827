package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vinoteca/internal/cache"

	"github.com/redis/go-redis/v9"
)

// ErrRevocationUnavailable is returned by Revoke when no Redis is configured.
var ErrRevocationUnavailable = errors.New("session revocation store unavailable")

// Revoker keeps a deny-list of session token ids in Redis. Entries expire
// together with the token they block.
type Revoker struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRevoker creates a Revoker. rdb may be nil, in which case nothing is
// ever revoked.
func NewRevoker(rdb *redis.Client, now func() time.Time) *Revoker {
	if now == nil {
		now = time.Now
	}
	return &Revoker{rdb: rdb, now: now}
}

// Revoke blocks claims.TokenID until claims.ExpiresAt.
func (r *Revoker) Revoke(ctx context.Context, claims *Claims) error {
	if r.rdb == nil {
		return ErrRevocationUnavailable
	}
	ttl := claims.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, cache.RevokedTokenKey(claims.TokenID), claims.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", claims.TokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked. Without Redis it reports false.
func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.rdb == nil {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, cache.RevokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return n > 0, nil
}
