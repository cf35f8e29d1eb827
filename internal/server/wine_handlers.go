package server

import (
	"vinoteca/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListWines godoc
// @Summary Browse the wine catalog
// @Tags wines
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query []string false "field,asc|desc" collectionFormat(multi)
// @Success 200 {object} models.Page[models.Wine]
// @Router /wines [get]
func (s *Server) ListWines(c *fiber.Ctx) error {
	page, err := parsePageRequest(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	result, err := s.wineService.ListWines(c.UserContext(), page)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// GetWine godoc
// @Summary Get a wine
// @Tags wines
// @Security BearerAuth
// @Produce json
// @Param id path string true "Wine id"
// @Success 200 {object} models.Wine
// @Failure 404 {object} models.ErrorResponse
// @Router /wines/{id} [get]
func (s *Server) GetWine(c *fiber.Ctx) error {
	wine, err := s.wineService.GetWine(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(wine)
}
