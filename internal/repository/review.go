package repository

import (
	"context"
	"errors"
	"fmt"

	"vinoteca/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data operations.
// The four list variants are deliberately separate queries; callers pick one.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page models.PageRequest) ([]*models.Review, int64, error)
	ListByWine(ctx context.Context, wineID string, page models.PageRequest) ([]*models.Review, int64, error)
	ListByAuthor(ctx context.Context, authorID string, page models.PageRequest) ([]*models.Review, int64, error)
	ListByWineAndAuthor(ctx context.Context, wineID, authorID string, page models.PageRequest) ([]*models.Review, int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	return &review, nil
}

// Update persists the mutable columns only; author and wine never change.
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	res := r.db.WithContext(ctx).
		Model(review).
		Select("rating", "notes", "image_url", "updated_at").
		Updates(review)
	if res.Error != nil {
		return fmt.Errorf("update review %s: %w", review.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Review", review.ID)
	}
	return nil
}

// Delete removes the review and its comments in one transaction.
func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of review %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Review{})
		if res.Error != nil {
			return fmt.Errorf("delete review %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Review", id)
		}
		return nil
	})
}

func (r *reviewRepository) List(ctx context.Context, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.list(ctx, page, nil)
}

func (r *reviewRepository) ListByWine(ctx context.Context, wineID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("wine_id = ?", wineID)
	})
}

func (r *reviewRepository) ListByAuthor(ctx context.Context, authorID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID)
	})
}

func (r *reviewRepository) ListByWineAndAuthor(ctx context.Context, wineID, authorID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("wine_id = ? AND author_id = ?", wineID, authorID)
	})
}

func (r *reviewRepository) list(ctx context.Context, page models.PageRequest, filter func(*gorm.DB) *gorm.DB) ([]*models.Review, int64, error) {
	scoped := func() *gorm.DB {
		db := readDB(r.db).WithContext(ctx).Model(&models.Review{})
		if filter != nil {
			db = filter(db)
		}
		return db
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	var reviews []*models.Review
	if err := paginate(scoped(), page, models.ReviewSortColumns).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}
