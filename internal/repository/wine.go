package repository

import (
	"context"
	"errors"
	"fmt"

	"vinoteca/internal/models"

	"gorm.io/gorm"
)

// WineRepository is the read side of the catalog plus the seeder's insert.
type WineRepository interface {
	GetByID(ctx context.Context, id string) (*models.Wine, error)
	List(ctx context.Context, page models.PageRequest) ([]*models.Wine, int64, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, wine *models.Wine) error
}

type wineRepository struct {
	db *gorm.DB
}

// NewWineRepository creates a new WineRepository
func NewWineRepository(db *gorm.DB) WineRepository {
	return &wineRepository{db: db}
}

func (r *wineRepository) GetByID(ctx context.Context, id string) (*models.Wine, error) {
	var wine models.Wine
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&wine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Wine", id)
		}
		return nil, fmt.Errorf("get wine %s: %w", id, err)
	}
	return &wine, nil
}

func (r *wineRepository) List(ctx context.Context, page models.PageRequest) ([]*models.Wine, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Wine{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count wines: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	var wines []*models.Wine
	if err := paginate(db, page, models.WineSortColumns).Find(&wines).Error; err != nil {
		return nil, 0, fmt.Errorf("list wines: %w", err)
	}
	return wines, total, nil
}

func (r *wineRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Wine{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count wines: %w", err)
	}
	return total, nil
}

func (r *wineRepository) Create(ctx context.Context, wine *models.Wine) error {
	if err := r.db.WithContext(ctx).Create(wine).Error; err != nil {
		return fmt.Errorf("create wine: %w", err)
	}
	return nil
}
