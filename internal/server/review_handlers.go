package server

import (
	"vinoteca/internal/models"
	"vinoteca/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReviewRequest is the body of POST /api/reviews.
type CreateReviewRequest struct {
	WineID   string  `json:"wineId"`
	Rating   int     `json:"rating"`
	Notes    *string `json:"notes"`
	ImageURL *string `json:"imageUrl"`
}

// UpdateReviewRequest is a partial update; omitted fields are left unchanged.
type UpdateReviewRequest struct {
	Rating   *int    `json:"rating"`
	Notes    *string `json:"notes"`
	ImageURL *string `json:"imageUrl"`
}

// CreateReview godoc
// @Summary Rate a wine
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req CreateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	review, err := s.reviewService.CreateReview(c.UserContext(), service.CreateReviewInput{
		AuthorID: userID,
		WineID:   req.WineID,
		Rating:   req.Rating,
		Notes:    req.Notes,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// ListReviews godoc
// @Summary List reviews, optionally by wine and/or author
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param wineId query string false "Wine id"
// @Param userId query string false "Author id"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query []string false "field,asc|desc" collectionFormat(multi)
// @Success 200 {object} models.Page[models.Review]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews [get]
func (s *Server) ListReviews(c *fiber.Ctx) error {
	page, err := parsePageRequest(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	result, err := s.reviewService.ListReviews(c.UserContext(), service.ListReviewsInput{
		WineID: c.Query("wineId"),
		UserID: c.Query("userId"),
		Page:   page,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// GetReview godoc
// @Summary Get a review
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param id path string true "Review id"
// @Success 200 {object} models.Review
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [get]
func (s *Server) GetReview(c *fiber.Ctx) error {
	review, err := s.reviewService.GetReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(review)
}

// UpdateReview godoc
// @Summary Edit your review
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Review id"
// @Param request body UpdateReviewRequest true "Fields to change"
// @Success 200 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [put]
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req UpdateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	review, err := s.reviewService.UpdateReview(c.UserContext(), service.UpdateReviewInput{
		CallerID: userID,
		ReviewID: c.Params("id"),
		Rating:   req.Rating,
		Notes:    req.Notes,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(review)
}

// DeleteReview godoc
// @Summary Delete your review and its comments
// @Tags reviews
// @Security BearerAuth
// @Param id path string true "Review id"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [delete]
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.reviewService.DeleteReview(c.UserContext(), service.DeleteReviewInput{
		CallerID: userID,
		ReviewID: c.Params("id"),
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
