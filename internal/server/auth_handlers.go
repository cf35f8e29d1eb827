package server

import (
	"strings"

	"vinoteca/internal/middleware"
	"vinoteca/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentityLoginRequest is the body of POST /api/auth/identity.
type IdentityLoginRequest struct {
	IdentityToken string `json:"identityToken"`
}

// AuthenticateWithIdentity godoc
// @Summary Exchange an identity-provider token for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body IdentityLoginRequest true "Identity token"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/identity [post]
func (s *Server) AuthenticateWithIdentity(c *fiber.Ctx) error {
	var req IdentityLoginRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	if strings.TrimSpace(req.IdentityToken) == "" {
		return models.RespondWithError(c, models.NewInvalidInputError("identityToken", "Identity token is required"))
	}

	result, err := s.authService.AuthenticateWithIdentityToken(c.UserContext(), req.IdentityToken)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Logout godoc
// @Summary Revoke the current session token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := middleware.CurrentSession(c)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyProfile godoc
// @Summary Current user's profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.authService.CurrentUser(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(user)
}
