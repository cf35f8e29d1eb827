package token

import (
	"context"
	"testing"
	"time"

	"vinoteca/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestIssuer(t *testing.T, now func() time.Time) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(Config{
		Secret:   testSecret,
		Issuer:   "vinoteca-api",
		Audience: "vinoteca-app",
		TTL:      time.Hour,
		Now:      now,
	})
	require.NoError(t, err)
	return issuer
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized), "expected UNAUTHORIZED, got %v", err)
}

func TestNewIssuer_RejectsMissingSecretOrTTL(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(Config{TTL: time.Hour})
	assert.Error(t, err)

	_, err = NewIssuer(Config{Secret: testSecret})
	assert.Error(t, err)
}

func TestIssuer_IssueAndParse(t *testing.T) {
	t.Parallel()
	issuer := newTestIssuer(t, func() time.Time { return fixedNow })

	raw, err := issuer.Issue("user-1")
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
	assert.True(t, claims.IssuedAt.Equal(fixedNow))
}

func TestIssuer_TokensAreDistinct(t *testing.T) {
	t.Parallel()
	issuer := newTestIssuer(t, func() time.Time { return fixedNow })

	first, err := issuer.Issue("user-1")
	require.NoError(t, err)
	second, err := issuer.Issue("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestIssuer_IssueRequiresUserID(t *testing.T) {
	t.Parallel()
	_, err := newTestIssuer(t, nil).Issue("")
	assert.Error(t, err)
}

func TestIssuer_ParseRejects(t *testing.T) {
	t.Parallel()
	now := fixedNow
	issuer := newTestIssuer(t, func() time.Time { return now })

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "vinoteca-api",
		Audience:  jwt.ClaimStrings{"vinoteca-app"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		ID:        "jti-1",
	}

	tests := []struct {
		name string
		raw  func() string
	}{
		{"garbage", func() string { return "not.a.jwt" }},
		{"wrong secret", func() string {
			return sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-12"), valid)
		}},
		{"wrong algorithm", func() string {
			return sign(jwt.SigningMethodHS512, []byte(testSecret), valid)
		}},
		{"unsigned", func() string {
			return sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)
		}},
		{"expired", func() string {
			c := valid
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"no expiry", func() string {
			c := valid
			c.ExpiresAt = nil
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong issuer", func() string {
			c := valid
			c.Issuer = "someone-else"
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong audience", func() string {
			c := valid
			c.Audience = jwt.ClaimStrings{"other-app"}
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"missing subject", func() string {
			c := valid
			c.Subject = ""
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"missing id", func() string {
			c := valid
			c.ID = ""
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.raw())
			assertUnauthorized(t, err)
		})
	}
}

func TestRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	revoker := NewRevoker(rdb, func() time.Time { return fixedNow })
	claims := &Claims{UserID: "user-1", TokenID: "jti-1", ExpiresAt: fixedNow.Add(30 * time.Minute)}

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, claims))

	revoked, err = revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 30*time.Minute, mr.TTL("session:revoked:jti-1"))

	mr.FastForward(31 * time.Minute)
	revoked, err = revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoker_ExpiredTokenIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	revoker := NewRevoker(rdb, func() time.Time { return fixedNow })
	err := revoker.Revoke(context.Background(), &Claims{TokenID: "old", ExpiresAt: fixedNow.Add(-time.Second)})
	require.NoError(t, err)
	assert.False(t, mr.Exists("session:revoked:old"))
}

func TestRevoker_WithoutRedis(t *testing.T) {
	t.Parallel()
	revoker := NewRevoker(nil, nil)

	revoked, err := revoker.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)

	err = revoker.Revoke(context.Background(), &Claims{TokenID: "jti", ExpiresAt: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, ErrRevocationUnavailable)
}
