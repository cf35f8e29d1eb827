package service

import (
	"context"

	"vinoteca/internal/models"
	"vinoteca/internal/repository"
)

// WineService exposes the read-only wine catalog.
type WineService struct {
	wineRepo repository.WineRepository
}

func NewWineService(wineRepo repository.WineRepository) *WineService {
	return &WineService{wineRepo: wineRepo}
}

var defaultWineSort = []models.SortOrder{{Field: "name"}}

func (s *WineService) GetWine(ctx context.Context, id string) (*models.Wine, error) {
	return s.wineRepo.GetByID(ctx, id)
}

// ListWines returns one page of the catalog ordered by name unless sorted otherwise.
func (s *WineService) ListWines(ctx context.Context, page models.PageRequest) (*models.Page[*models.Wine], error) {
	page = page.Normalized().WithDefaultSort(defaultWineSort...)
	if err := page.ValidateSort(models.WineSortColumns); err != nil {
		return nil, err
	}
	wines, total, err := s.wineRepo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return models.NewPage(wines, page, total), nil
}
