package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vinoteca/internal/identity"
	"vinoteca/internal/models"
	"vinoteca/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// sequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn                func(context.Context, string) (*models.User, error)
	getByIDsFn               func(context.Context, []string) ([]*models.User, error)
	getByExternalSubjectIDFn func(context.Context, string) (*models.User, error)
	createFn                 func(context.Context, *models.User) error
	updateFn                 func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) GetByExternalSubjectID(ctx context.Context, subject string) (*models.User, error) {
	return s.getByExternalSubjectIDFn(ctx, subject)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, DisplayName: "user " + id}, nil
		},
		getByIDsFn:               func(_ context.Context, _ []string) ([]*models.User, error) { return nil, nil },
		getByExternalSubjectIDFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:                 func(_ context.Context, _ *models.User) error { return nil },
		updateFn:                 func(_ context.Context, _ *models.User) error { return nil },
	}
}

// wineRepoStub is a stub for repository.WineRepository.
type wineRepoStub struct {
	getByIDFn func(context.Context, string) (*models.Wine, error)
	listFn    func(context.Context, models.PageRequest) ([]*models.Wine, int64, error)
	countFn   func(context.Context) (int64, error)
	createFn  func(context.Context, *models.Wine) error
}

func (s *wineRepoStub) GetByID(ctx context.Context, id string) (*models.Wine, error) {
	return s.getByIDFn(ctx, id)
}
func (s *wineRepoStub) List(ctx context.Context, page models.PageRequest) ([]*models.Wine, int64, error) {
	return s.listFn(ctx, page)
}
func (s *wineRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *wineRepoStub) Create(ctx context.Context, wine *models.Wine) error {
	return s.createFn(ctx, wine)
}

func noopWineRepo() *wineRepoStub {
	return &wineRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.Wine, error) { return &models.Wine{ID: id}, nil },
		listFn:    func(_ context.Context, _ models.PageRequest) ([]*models.Wine, int64, error) { return nil, 0, nil },
		countFn:   func(_ context.Context) (int64, error) { return 0, nil },
		createFn:  func(_ context.Context, _ *models.Wine) error { return nil },
	}
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn              func(context.Context, *models.Review) error
	getByIDFn             func(context.Context, string) (*models.Review, error)
	updateFn              func(context.Context, *models.Review) error
	deleteFn              func(context.Context, string) error
	listFn                func(context.Context, models.PageRequest) ([]*models.Review, int64, error)
	listByWineFn          func(context.Context, string, models.PageRequest) ([]*models.Review, int64, error)
	listByAuthorFn        func(context.Context, string, models.PageRequest) ([]*models.Review, int64, error)
	listByWineAndAuthorFn func(context.Context, string, string, models.PageRequest) ([]*models.Review, int64, error)
}

func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	return s.createFn(ctx, review)
}
func (s *reviewRepoStub) GetByID(ctx context.Context, id string) (*models.Review, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reviewRepoStub) Update(ctx context.Context, review *models.Review) error {
	return s.updateFn(ctx, review)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *reviewRepoStub) List(ctx context.Context, page models.PageRequest) ([]*models.Review, int64, error) {
	return s.listFn(ctx, page)
}
func (s *reviewRepoStub) ListByWine(ctx context.Context, wineID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return s.listByWineFn(ctx, wineID, page)
}
func (s *reviewRepoStub) ListByAuthor(ctx context.Context, authorID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return s.listByAuthorFn(ctx, authorID, page)
}
func (s *reviewRepoStub) ListByWineAndAuthor(ctx context.Context, wineID, authorID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return s.listByWineAndAuthorFn(ctx, wineID, authorID, page)
}

func noopReviewRepo() *reviewRepoStub {
	empty := func() ([]*models.Review, int64, error) { return nil, 0, nil }
	return &reviewRepoStub{
		createFn:  func(_ context.Context, _ *models.Review) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Review, error) { return &models.Review{ID: id}, nil },
		updateFn:  func(_ context.Context, _ *models.Review) error { return nil },
		deleteFn:  func(_ context.Context, _ string) error { return nil },
		listFn: func(_ context.Context, _ models.PageRequest) ([]*models.Review, int64, error) {
			return empty()
		},
		listByWineFn: func(_ context.Context, _ string, _ models.PageRequest) ([]*models.Review, int64, error) {
			return empty()
		},
		listByAuthorFn: func(_ context.Context, _ string, _ models.PageRequest) ([]*models.Review, int64, error) {
			return empty()
		},
		listByWineAndAuthorFn: func(_ context.Context, _, _ string, _ models.PageRequest) ([]*models.Review, int64, error) {
			return empty()
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn           func(context.Context, *models.Comment) error
	getByIDFn          func(context.Context, string) (*models.Comment, error)
	updateFn           func(context.Context, *models.Comment) error
	deleteFn           func(context.Context, string) error
	listByReviewFn     func(context.Context, string, models.PageRequest) ([]*models.Comment, int64, error)
	listByAuthorFn     func(context.Context, string, models.PageRequest) ([]*models.Comment, int64, error)
	countByReviewIDFn  func(context.Context, string) (int64, error)
	countByReviewIDsFn func(context.Context, []string) (map[string]int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) ListByReview(ctx context.Context, reviewID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	return s.listByReviewFn(ctx, reviewID, page)
}
func (s *commentRepoStub) ListByAuthor(ctx context.Context, authorID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	return s.listByAuthorFn(ctx, authorID, page)
}
func (s *commentRepoStub) CountByReviewID(ctx context.Context, reviewID string) (int64, error) {
	return s.countByReviewIDFn(ctx, reviewID)
}
func (s *commentRepoStub) CountByReviewIDs(ctx context.Context, reviewIDs []string) (map[string]int64, error) {
	return s.countByReviewIDsFn(ctx, reviewIDs)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		updateFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:  func(_ context.Context, _ string) error { return nil },
		listByReviewFn: func(_ context.Context, _ string, _ models.PageRequest) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		listByAuthorFn: func(_ context.Context, _ string, _ models.PageRequest) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		countByReviewIDFn:  func(_ context.Context, _ string) (int64, error) { return 0, nil },
		countByReviewIDsFn: func(_ context.Context, _ []string) (map[string]int64, error) { return map[string]int64{}, nil },
	}
}

// verifierStub is a stub for identity.Verifier.
type verifierStub struct {
	verifyFn func(context.Context, string) (*identity.VerifiedIdentity, error)
}

func (s *verifierStub) Verify(ctx context.Context, raw string) (*identity.VerifiedIdentity, error) {
	return s.verifyFn(ctx, raw)
}

// issuerStub hands out numbered tokens so each call is distinct.
type issuerStub struct {
	issued int
	err    error
}

func (s *issuerStub) Issue(userID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.issued++
	return fmt.Sprintf("session-%s-%d", userID, s.issued), nil
}

type revokerStub struct {
	revoked []*token.Claims
	err     error
}

func (s *revokerStub) Revoke(_ context.Context, claims *token.Claims) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, claims)
	return nil
}

func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code INVALID_INPUT on field.
func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	appErr := assertCode(t, err, models.CodeInvalidInput)
	assert.Equal(t, field, appErr.Field)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}

func assertNotFoundError(t *testing.T, err error, resource string) {
	t.Helper()
	appErr := assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, resource, appErr.Resource)
}

func ptr[T any](v T) *T { return &v }
