// Package middleware provides the Fiber middleware chain: request context,
// logging, session authentication, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"log/slog"
	"strings"

	"vinoteca/internal/models"
	"vinoteca/internal/observability"
	"vinoteca/internal/token"

	"github.com/gofiber/fiber/v2"
)

// SessionParser validates a raw session token.
type SessionParser interface {
	Parse(raw string) (*token.Claims, error)
}

// RevocationChecker reports whether a session token id was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthRequired rejects requests without a valid, unrevoked Bearer session
// token. On success the user id is stored in c.Locals(LocalUserID) and in the
// request context, and the claims in c.Locals(LocalSessionClaim).
func AuthRequired(parser SessionParser, revocations RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return models.RespondWithError(c, models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := parser.Parse(raw)
		if err != nil {
			return models.RespondWithError(c, err)
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.UserContext(), claims.TokenID)
			if err != nil {
				// Redis trouble must not lock every user out
				observability.GlobalLogger.WarnContext(c.UserContext(), "session revocation check failed",
					slog.String("error", err.Error()))
			} else if revoked {
				return models.RespondWithError(c, models.NewUnauthorizedError("Session token has been revoked"))
			}
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalSessionClaim, claims)
		c.SetUserContext(observability.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// CurrentUserID returns the id stored by AuthRequired.
func CurrentUserID(c *fiber.Ctx) (string, bool) {
	uid, ok := c.Locals(LocalUserID).(string)
	return uid, ok && uid != ""
}

// CurrentSession returns the claims stored by AuthRequired.
func CurrentSession(c *fiber.Ctx) (*token.Claims, bool) {
	claims, ok := c.Locals(LocalSessionClaim).(*token.Claims)
	return claims, ok && claims != nil
}
