// Package identity verifies ID tokens issued by the third-party identity
// provider.
package identity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"vinoteca/internal/models"
	"vinoteca/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
)

// VerifiedIdentity is the provider's view of the user behind a valid token.
type VerifiedIdentity struct {
	ExternalSubjectID string
	Email             string
	DisplayName       string
	AvatarURL         string
}

// Verifier checks an identity token. Every failure, including transport
// failures reaching the provider, is an Unauthorized taxonomy error.
type Verifier interface {
	Verify(ctx context.Context, identityToken string) (*VerifiedIdentity, error)
}

// Config configures a JWKSVerifier.
type Config struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway     time.Duration
	HTTPClient *http.Client
	// RefreshInterval re-fetches the cached key set in the background.
	// Zero disables periodic refresh.
	RefreshInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// JWKSVerifier validates OIDC ID tokens signed with RS256 or ES256 against
// the provider's published key set. Close stops the background refresh.
type JWKSVerifier struct {
	issuer   string
	audience string
	keys     *keySource
	leeway   time.Duration
	now      func() time.Time
}

// NewJWKSVerifier creates a JWKSVerifier. A nil HTTPClient gets a 5s timeout.
func NewJWKSVerifier(cfg Config) *JWKSVerifier {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &JWKSVerifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		keys:     newKeySource(cfg.JWKSURL, client, cfg.RefreshInterval),
		leeway:   cfg.Leeway,
		now:      now,
	}
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

var supportedAlgorithms = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// Verify implements Verifier.
func (v *JWKSVerifier) Verify(ctx context.Context, identityToken string) (*VerifiedIdentity, error) {
	span, _ := observability.NewSpan(ctx, "identity.Verify", observability.WithSpanKind(observability.SpanKindClient))
	defer span.End()

	identityToken = strings.TrimSpace(identityToken)
	if identityToken == "" {
		return nil, models.NewUnauthorizedError("Identity token is required")
	}
	if v.audience == "" {
		// an empty expected audience would disable the aud check entirely
		return nil, models.NewUnauthorizedError("Identity provider audience is not configured")
	}

	var claims idTokenClaims
	_, err := jwt.ParseWithClaims(identityToken, &claims,
		func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			span.AddAttributes(attribute.String("identity.kid", kid), attribute.String("identity.alg", t.Method.Alg()))
			return v.keys.lookup(t)
		},
		jwt.WithValidMethods(supportedAlgorithms),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		span.SetError(err)
		return nil, models.NewUnauthorizedErrorWithCause("Identity token rejected", err)
	}
	if claims.Subject == "" {
		return nil, models.NewUnauthorizedError("Identity token has no subject")
	}

	return &VerifiedIdentity{
		ExternalSubjectID: claims.Subject,
		Email:             claims.Email,
		DisplayName:       claims.Name,
		AvatarURL:         claims.Picture,
	}, nil
}

// Close stops the background key set refresh.
func (v *JWKSVerifier) Close() error {
	v.keys.close()
	return nil
}
