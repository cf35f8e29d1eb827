package service

import (
	"context"

	"vinoteca/internal/models"
	"vinoteca/internal/observability"
	"vinoteca/internal/repository"
	"vinoteca/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
	rt          runtime
}

type CreateCommentInput struct {
	AuthorID string
	ReviewID string
	Text     string
}

type UpdateCommentInput struct {
	CallerID  string
	CommentID string
	Text      string
}

type DeleteCommentInput struct {
	CallerID  string
	CommentID string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	opts ...Option,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
		rt:          newRuntime(opts),
	}
}

var (
	commentsByReviewSort = []models.SortOrder{{Field: "createdAt"}}
	commentsByAuthorSort = []models.SortOrder{{Field: "createdAt", Desc: true}}
)

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, invalid("text", err)
	}

	if _, err := s.reviewRepo.GetByID(ctx, in.ReviewID); err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	now := s.rt.timestamp()
	comment := &models.Comment{
		ID:        s.rt.newID(),
		ReviewID:  in.ReviewID,
		AuthorID:  in.AuthorID,
		Text:      in.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.RecordMutation("comment", "create")

	comment.Author = author.Summary()
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != in.CallerID {
		return nil, models.NewForbiddenError("Comment", comment.ID, "Only the author can edit this comment")
	}
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, invalid("text", err)
	}

	comment.Text = in.Text
	comment.UpdatedAt = s.rt.timestamp()
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	observability.RecordMutation("comment", "update")

	author, err := s.userRepo.GetByID(ctx, comment.AuthorID)
	if err != nil {
		return nil, err
	}
	comment.Author = author.Summary()
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != in.CallerID {
		return models.NewForbiddenError("Comment", comment.ID, "Only the author can delete this comment")
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}
	observability.RecordMutation("comment", "delete")
	return nil
}

// ListCommentsByAuthor returns userID's comments, newest first by default.
func (s *CommentService) ListCommentsByAuthor(ctx context.Context, userID string, page models.PageRequest) (*models.Page[*models.Comment], error) {
	page = page.Normalized().WithDefaultSort(commentsByAuthorSort...)
	if err := page.ValidateSort(models.CommentSortColumns); err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.ListByAuthor(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	summary := author.Summary()
	for _, c := range comments {
		c.Author = summary
	}
	return models.NewPage(comments, page, total), nil
}

// ListCommentsByReview returns the thread under reviewID, oldest first by default.
func (s *CommentService) ListCommentsByReview(ctx context.Context, reviewID string, page models.PageRequest) (*models.Page[*models.Comment], error) {
	page = page.Normalized().WithDefaultSort(commentsByReviewSort...)
	if err := page.ValidateSort(models.CommentSortColumns); err != nil {
		return nil, err
	}
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.ListByReview(ctx, reviewID, page)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return models.NewPage(comments, page, total), nil
}

// attachAuthors loads every distinct author on the page with one query.
func (s *CommentService) attachAuthors(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(comments))
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.AuthorID]; ok {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		ids = append(ids, c.AuthorID)
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}
	for _, c := range comments {
		c.Author = byID[c.AuthorID]
	}
	return nil
}
