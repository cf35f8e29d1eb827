package server

import (
	"strconv"
	"strings"

	"vinoteca/internal/middleware"
	"vinoteca/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parsePageRequest reads page, size and the repeatable sort=field,dir query
// parameters. Range clamping is left to the services.
func parsePageRequest(c *fiber.Ctx) (models.PageRequest, error) {
	var req models.PageRequest

	var err error
	if req.Page, err = queryInt(c, "page"); err != nil {
		return req, err
	}
	if req.Page > models.MaxPage {
		return req, models.NewInvalidInputError("page", "page must not exceed "+strconv.Itoa(models.MaxPage))
	}
	if req.Size, err = queryInt(c, "size"); err != nil {
		return req, err
	}

	for _, raw := range c.Context().QueryArgs().PeekMulti("sort") {
		order, err := parseSortOrder(string(raw))
		if err != nil {
			return req, err
		}
		req.Sort = append(req.Sort, order)
	}
	return req, nil
}

func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, models.NewInvalidInputError(name, name+" must be a non-negative integer")
	}
	return n, nil
}

// parseSortOrder parses "field" or "field,asc|desc".
func parseSortOrder(raw string) (models.SortOrder, error) {
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return models.SortOrder{}, models.NewInvalidInputError("sort", "Sort field is required")
	}

	order := models.SortOrder{Field: field}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		order.Desc = true
	default:
		return models.SortOrder{}, models.NewInvalidInputError("sort", "Sort direction must be asc or desc")
	}
	return order, nil
}

// currentUserID returns the authenticated caller. Routes without
// AuthRequired in front get Unauthorized.
func currentUserID(c *fiber.Ctx) (string, error) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return "", models.NewUnauthorizedError("Authentication required")
	}
	return uid, nil
}

// parseBody decodes the JSON body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return models.NewInvalidInputError("body", "Invalid request body")
	}
	return nil
}
