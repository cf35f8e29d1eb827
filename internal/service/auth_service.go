package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vinoteca/internal/identity"
	"vinoteca/internal/models"
	"vinoteca/internal/observability"
	"vinoteca/internal/repository"
	"vinoteca/internal/token"
)

// SessionIssuer mints first-party session tokens.
type SessionIssuer interface {
	Issue(userID string) (string, error)
}

// SessionRevoker invalidates a session token before its expiry.
type SessionRevoker interface {
	Revoke(ctx context.Context, claims *token.Claims) error
}

// AuthService exchanges identity-provider tokens for session tokens and keeps
// the local user record in step with the provider's profile.
type AuthService struct {
	verifier identity.Verifier
	userRepo repository.UserRepository
	issuer   SessionIssuer
	revoker  SessionRevoker
	rt       runtime
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	SessionToken string `json:"sessionToken"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl"`
}

func NewAuthService(
	verifier identity.Verifier,
	userRepo repository.UserRepository,
	issuer SessionIssuer,
	revoker SessionRevoker,
	opts ...Option,
) *AuthService {
	return &AuthService{
		verifier: verifier,
		userRepo: userRepo,
		issuer:   issuer,
		revoker:  revoker,
		rt:       newRuntime(opts),
	}
}

// AuthenticateWithIdentityToken verifies identityToken with the provider,
// finds or provisions the matching user and returns a fresh session token.
// Repeating the call with an unchanged profile writes nothing.
func (s *AuthService) AuthenticateWithIdentityToken(ctx context.Context, identityToken string) (*AuthResult, error) {
	verified, err := s.verifier.Verify(ctx, identityToken)
	if err != nil {
		observability.AuthOutcomes.WithLabelValues(observability.AuthOutcomeRejected).Inc()
		observability.GlobalLogger.InfoContext(ctx, "identity token rejected", slog.String("reason", err.Error()))
		return nil, err
	}

	user, outcome, err := s.resolveUser(ctx, verified)
	if err != nil {
		observability.AuthOutcomes.WithLabelValues(observability.AuthOutcomeFailed).Inc()
		return nil, err
	}

	sessionToken, err := s.issuer.Issue(user.ID)
	if err != nil {
		observability.AuthOutcomes.WithLabelValues(observability.AuthOutcomeFailed).Inc()
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	observability.AuthOutcomes.WithLabelValues(outcome).Inc()

	return &AuthResult{
		SessionToken: sessionToken,
		UserID:       user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		AvatarURL:    user.AvatarURL,
	}, nil
}

func (s *AuthService) resolveUser(ctx context.Context, verified *identity.VerifiedIdentity) (*models.User, string, error) {
	existing, err := s.userRepo.GetByExternalSubjectID(ctx, verified.ExternalSubjectID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		if err := s.syncProfile(ctx, existing, verified); err != nil {
			return nil, "", err
		}
		return existing, observability.AuthOutcomeExistingUser, nil
	}

	now := s.rt.timestamp()
	user := &models.User{
		ID:                s.rt.newID(),
		DisplayName:       verified.DisplayName,
		Email:             verified.Email,
		AvatarURL:         verified.AvatarURL,
		ExternalSubjectID: verified.ExternalSubjectID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// a concurrent login for the same subject inserted first
		winner, getErr := s.userRepo.GetByExternalSubjectID(ctx, verified.ExternalSubjectID)
		if getErr != nil {
			return nil, "", getErr
		}
		if winner == nil {
			return nil, "", fmt.Errorf("user for subject vanished after duplicate insert: %w", err)
		}
		if err := s.syncProfile(ctx, winner, verified); err != nil {
			return nil, "", err
		}
		return winner, observability.AuthOutcomeExistingUser, nil
	}
	if err != nil {
		return nil, "", err
	}

	observability.GlobalLogger.InfoContext(ctx, "user provisioned from identity provider", slog.String("created_user_id", user.ID))
	return user, observability.AuthOutcomeProvisioned, nil
}

// syncProfile copies provider-owned fields onto user and persists them only
// when at least one differs.
func (s *AuthService) syncProfile(ctx context.Context, user *models.User, verified *identity.VerifiedIdentity) error {
	if user.Email == verified.Email &&
		user.DisplayName == verified.DisplayName &&
		user.AvatarURL == verified.AvatarURL {
		return nil
	}

	user.Email = verified.Email
	user.DisplayName = verified.DisplayName
	user.AvatarURL = verified.AvatarURL
	user.UpdatedAt = s.rt.timestamp()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	observability.GlobalLogger.InfoContext(ctx, "user profile synced from identity provider", slog.String("synced_user_id", user.ID))
	return nil
}

// Logout revokes the presented session token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *token.Claims) error {
	if claims == nil {
		return models.NewUnauthorizedError("Authentication required")
	}
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser returns the profile of the authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
