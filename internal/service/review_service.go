package service

import (
	"context"

	"vinoteca/internal/models"
	"vinoteca/internal/observability"
	"vinoteca/internal/repository"
	"vinoteca/internal/validation"
)

// ReviewService handles ratings of wines. Only the author of a review may
// change or delete it.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	commentRepo repository.CommentRepository
	wineRepo    repository.WineRepository
	userRepo    repository.UserRepository
	rt          runtime
}

type CreateReviewInput struct {
	AuthorID string
	WineID   string
	Rating   int
	Notes    *string
	ImageURL *string
}

// UpdateReviewInput carries a partial update; nil fields are left untouched.
type UpdateReviewInput struct {
	CallerID string
	ReviewID string
	Rating   *int
	Notes    *string
	ImageURL *string
}

type DeleteReviewInput struct {
	CallerID string
	ReviewID string
}

// ListReviewsInput filters by wine, by author, by both or by neither.
type ListReviewsInput struct {
	WineID string
	UserID string
	Page   models.PageRequest
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	commentRepo repository.CommentRepository,
	wineRepo repository.WineRepository,
	userRepo repository.UserRepository,
	opts ...Option,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
		wineRepo:    wineRepo,
		userRepo:    userRepo,
		rt:          newRuntime(opts),
	}
}

var defaultReviewSort = []models.SortOrder{{Field: "createdAt", Desc: true}}

func validateReviewContent(notes, imageURL *string) error {
	if notes != nil {
		if err := validation.ValidateNotes(*notes); err != nil {
			return invalid("notes", err)
		}
	}
	if imageURL != nil {
		if err := validation.ValidateImageURL(*imageURL); err != nil {
			return invalid("imageUrl", err)
		}
	}
	return nil
}

func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if err := validation.ValidateRating(in.Rating); err != nil {
		return nil, invalid("rating", err)
	}
	if err := validateReviewContent(in.Notes, in.ImageURL); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, in.AuthorID); err != nil {
		return nil, err
	}
	if _, err := s.wineRepo.GetByID(ctx, in.WineID); err != nil {
		return nil, err
	}

	now := s.rt.timestamp()
	review := &models.Review{
		ID:        s.rt.newID(),
		AuthorID:  in.AuthorID,
		WineID:    in.WineID,
		Rating:    in.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Notes != nil {
		review.Notes = *in.Notes
	}
	if in.ImageURL != nil {
		review.ImageURL = *in.ImageURL
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	observability.RecordMutation("review", "create")

	review.CommentCount = 0
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != in.CallerID {
		return nil, models.NewForbiddenError("Review", review.ID, "Only the author can edit this review")
	}

	if in.Rating != nil {
		if err := validation.ValidateRating(*in.Rating); err != nil {
			return nil, invalid("rating", err)
		}
	}
	if err := validateReviewContent(in.Notes, in.ImageURL); err != nil {
		return nil, err
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.Notes != nil {
		review.Notes = *in.Notes
	}
	if in.ImageURL != nil {
		review.ImageURL = *in.ImageURL
	}
	review.UpdatedAt = s.rt.timestamp()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	observability.RecordMutation("review", "update")

	count, err := s.commentRepo.CountByReviewID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	review.CommentCount = count
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, in DeleteReviewInput) error {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		return err
	}
	if review.AuthorID != in.CallerID {
		return models.NewForbiddenError("Review", review.ID, "Only the author can delete this review")
	}

	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		return err
	}
	observability.RecordMutation("review", "delete")
	return nil
}

// GetReview returns the review with its current comment count.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.commentRepo.CountByReviewID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	review.CommentCount = count
	return review, nil
}

// ListReviews returns one page of reviews, newest first unless the request
// sorts otherwise. Comment counts for the page come from a single query.
func (s *ReviewService) ListReviews(ctx context.Context, in ListReviewsInput) (*models.Page[*models.Review], error) {
	page := in.Page.Normalized().WithDefaultSort(defaultReviewSort...)
	if err := page.ValidateSort(models.ReviewSortColumns); err != nil {
		return nil, err
	}

	if in.WineID != "" {
		if _, err := s.wineRepo.GetByID(ctx, in.WineID); err != nil {
			return nil, err
		}
	}
	if in.UserID != "" {
		if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
			return nil, err
		}
	}

	var (
		reviews []*models.Review
		total   int64
		err     error
	)
	switch {
	case in.WineID != "" && in.UserID != "":
		reviews, total, err = s.reviewRepo.ListByWineAndAuthor(ctx, in.WineID, in.UserID, page)
	case in.WineID != "":
		reviews, total, err = s.reviewRepo.ListByWine(ctx, in.WineID, page)
	case in.UserID != "":
		reviews, total, err = s.reviewRepo.ListByAuthor(ctx, in.UserID, page)
	default:
		reviews, total, err = s.reviewRepo.List(ctx, page)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachCommentCounts(ctx, reviews); err != nil {
		return nil, err
	}
	return models.NewPage(reviews, page, total), nil
}

func (s *ReviewService) attachCommentCounts(ctx context.Context, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	counts, err := s.commentRepo.CountByReviewIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		r.CommentCount = counts[r.ID]
	}
	return nil
}
