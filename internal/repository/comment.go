package repository

import (
	"context"
	"errors"
	"fmt"

	"vinoteca/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
	ListByReview(ctx context.Context, reviewID string, page models.PageRequest) ([]*models.Comment, int64, error)
	ListByAuthor(ctx context.Context, authorID string, page models.PageRequest) ([]*models.Comment, int64, error)
	CountByReviewID(ctx context.Context, reviewID string) (int64, error)
	CountByReviewIDs(ctx context.Context, reviewIDs []string) (map[string]int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res := r.db.WithContext(ctx).
		Model(comment).
		Select("text", "updated_at").
		Updates(comment)
	if res.Error != nil {
		return fmt.Errorf("update comment %s: %w", comment.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", comment.ID)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return fmt.Errorf("delete comment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) ListByReview(ctx context.Context, reviewID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	return r.list(ctx, page, "review_id = ?", reviewID)
}

func (r *commentRepository) ListByAuthor(ctx context.Context, authorID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	return r.list(ctx, page, "author_id = ?", authorID)
}

func (r *commentRepository) list(ctx context.Context, page models.PageRequest, where string, arg string) ([]*models.Comment, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Comment{}).Where(where, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	var comments []*models.Comment
	if err := paginate(db.Where(where, arg), page, models.CommentSortColumns).Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (r *commentRepository) CountByReviewID(ctx context.Context, reviewID string) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Comment{}).
		Where("review_id = ?", reviewID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count comments of review %s: %w", reviewID, err)
	}
	return count, nil
}

type reviewCommentCount struct {
	ReviewID string
	Count    int64
}

// CountByReviewIDs counts comments for a page of reviews in one grouped
// query. Reviews without comments are absent from the map.
func (r *commentRepository) CountByReviewIDs(ctx context.Context, reviewIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return counts, nil
	}

	var rows []reviewCommentCount
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Comment{}).
		Select("review_id, COUNT(*) AS count").
		Where("review_id IN ?", reviewIDs).
		Group("review_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count comments by review: %w", err)
	}
	for _, row := range rows {
		counts[row.ReviewID] = row.Count
	}
	return counts, nil
}
