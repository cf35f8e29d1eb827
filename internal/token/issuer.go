// Package token mints and validates first-party session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"vinoteca/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the validated content of a session token.
type Claims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config configures an Issuer.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Issuer signs session tokens with HS256 and validates them on the way back in.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewIssuer builds an Issuer. An empty secret is rejected because every
// token signed with it would be forgeable.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session token secret not configured")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session token ttl must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      now,
	}, nil
}

// Issue returns a signed token for userID. Each call carries a fresh jti, so
// two tokens for the same user are never equal.
func (i *Issuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("cannot issue a session token without a user id")
	}

	now := i.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    i.issuer,
		Audience:  jwt.ClaimStrings{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns its claims. Every failure is an
// Unauthorized taxonomy error.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &rc,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, models.NewUnauthorizedErrorWithCause("Invalid or expired session token", err)
	}
	if rc.Subject == "" {
		return nil, models.NewUnauthorizedError("Session token has no subject")
	}
	if rc.ID == "" {
		return nil, models.NewUnauthorizedError("Session token has no id")
	}

	claims := &Claims{
		UserID:    rc.Subject,
		TokenID:   rc.ID,
		ExpiresAt: rc.ExpiresAt.Time,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	return claims, nil
}
