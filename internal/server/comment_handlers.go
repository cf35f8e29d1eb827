package server

import (
	"vinoteca/internal/models"
	"vinoteca/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the body for creating or editing a comment.
type CommentRequest struct {
	Text string `json:"text"`
}

// CreateComment godoc
// @Summary Comment on a review
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Review id"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: userID,
		ReviewID: c.Params("id"),
		Text:     req.Text,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListReviewComments godoc
// @Summary Comments on a review, oldest first
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Review id"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query []string false "field,asc|desc" collectionFormat(multi)
// @Success 200 {object} models.Page[models.Comment]
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/comments [get]
func (s *Server) ListReviewComments(c *fiber.Ctx) error {
	page, err := parsePageRequest(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	result, err := s.commentService.ListCommentsByReview(c.UserContext(), c.Params("id"), page)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// ListUserComments godoc
// @Summary Comments written by a user, newest first
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path string true "User id"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query []string false "field,asc|desc" collectionFormat(multi)
// @Success 200 {object} models.Page[models.Comment]
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/comments [get]
func (s *Server) ListUserComments(c *fiber.Ctx) error {
	page, err := parsePageRequest(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	result, err := s.commentService.ListCommentsByAuthor(c.UserContext(), c.Params("id"), page)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// UpdateComment godoc
// @Summary Edit your comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Comment id"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		CallerID:  userID,
		CommentID: c.Params("id"),
		Text:      req.Text,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment godoc
// @Summary Delete your comment
// @Tags comments
// @Security BearerAuth
// @Param id path string true "Comment id"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		CallerID:  userID,
		CommentID: c.Params("id"),
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
