// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"vinoteca/internal/models"
	"vinoteca/internal/repository"
)

// Store is an in-memory backing for the repository stubs. All stubs created
// from one Store share its data, so a review deleted through Reviews() also
// takes its comments with it.
type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	wines    map[string]models.Wine
	reviews  map[string]models.Review
	comments map[string]models.Comment

	userWrites int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		wines:    make(map[string]models.Wine),
		reviews:  make(map[string]models.Review),
		comments: make(map[string]models.Comment),
	}
}

func (s *Store) Users() *UserRepoStub       { return &UserRepoStub{s} }
func (s *Store) Wines() *WineRepoStub       { return &WineRepoStub{s} }
func (s *Store) Reviews() *ReviewRepoStub   { return &ReviewRepoStub{s} }
func (s *Store) Comments() *CommentRepoStub { return &CommentRepoStub{s} }

// UserWrites counts user inserts and updates since the Store was created.
func (s *Store) UserWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userWrites
}

// PutWine adds a catalog entry directly; the API never writes wines.
func (s *Store) PutWine(w models.Wine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wines[w.ID] = w
}

// PutUser adds a user directly without counting it as a write.
func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

var (
	_ repository.UserRepository    = (*UserRepoStub)(nil)
	_ repository.WineRepository    = (*WineRepoStub)(nil)
	_ repository.ReviewRepository  = (*ReviewRepoStub)(nil)
	_ repository.CommentRepository = (*CommentRepoStub)(nil)
)

// UserRepoStub is an in-memory repository.UserRepository.
type UserRepoStub struct{ s *Store }

func (r *UserRepoStub) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return &u, nil
}

func (r *UserRepoStub) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r *UserRepoStub) GetByExternalSubjectID(_ context.Context, subject string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ExternalSubjectID == subject {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepoStub) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ExternalSubjectID == user.ExternalSubjectID {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	r.s.userWrites++
	return nil
}

func (r *UserRepoStub) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[user.ID]
	if !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	stored.DisplayName = user.DisplayName
	stored.Email = user.Email
	stored.AvatarURL = user.AvatarURL
	stored.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = stored
	r.s.userWrites++
	return nil
}

// WineRepoStub is an in-memory repository.WineRepository.
type WineRepoStub struct{ s *Store }

func (r *WineRepoStub) GetByID(_ context.Context, id string) (*models.Wine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wines[id]
	if !ok {
		return nil, models.NewNotFoundError("Wine", id)
	}
	return &w, nil
}

func (r *WineRepoStub) List(_ context.Context, page models.PageRequest) ([]*models.Wine, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*models.Wine, 0, len(r.s.wines))
	for _, w := range r.s.wines {
		all = append(all, &w)
	}
	return window(all, page, wineField, func(w *models.Wine) string { return w.ID })
}

func (r *WineRepoStub) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.wines)), nil
}

func (r *WineRepoStub) Create(_ context.Context, wine *models.Wine) error {
	r.s.PutWine(*wine)
	return nil
}

// ReviewRepoStub is an in-memory repository.ReviewRepository.
type ReviewRepoStub struct{ s *Store }

func (r *ReviewRepoStub) Create(_ context.Context, review *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *review
	stored.CommentCount = 0
	r.s.reviews[review.ID] = stored
	return nil
}

func (r *ReviewRepoStub) GetByID(_ context.Context, id string) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, models.NewNotFoundError("Review", id)
	}
	return &rv, nil
}

func (r *ReviewRepoStub) Update(_ context.Context, review *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reviews[review.ID]
	if !ok {
		return models.NewNotFoundError("Review", review.ID)
	}
	stored.Rating = review.Rating
	stored.Notes = review.Notes
	stored.ImageURL = review.ImageURL
	stored.UpdatedAt = review.UpdatedAt
	r.s.reviews[review.ID] = stored
	return nil
}

func (r *ReviewRepoStub) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return models.NewNotFoundError("Review", id)
	}
	for cid, c := range r.s.comments {
		if c.ReviewID == id {
			delete(r.s.comments, cid)
		}
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *ReviewRepoStub) List(_ context.Context, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.filter(page, func(*models.Review) bool { return true })
}

func (r *ReviewRepoStub) ListByWine(_ context.Context, wineID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.filter(page, func(rv *models.Review) bool { return rv.WineID == wineID })
}

func (r *ReviewRepoStub) ListByAuthor(_ context.Context, authorID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.filter(page, func(rv *models.Review) bool { return rv.AuthorID == authorID })
}

func (r *ReviewRepoStub) ListByWineAndAuthor(_ context.Context, wineID, authorID string, page models.PageRequest) ([]*models.Review, int64, error) {
	return r.filter(page, func(rv *models.Review) bool { return rv.WineID == wineID && rv.AuthorID == authorID })
}

func (r *ReviewRepoStub) filter(page models.PageRequest, keep func(*models.Review) bool) ([]*models.Review, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*models.Review
	for _, rv := range r.s.reviews {
		if keep(&rv) {
			matched = append(matched, &rv)
		}
	}
	return window(matched, page, reviewField, func(rv *models.Review) string { return rv.ID })
}

// CommentRepoStub is an in-memory repository.CommentRepository.
type CommentRepoStub struct{ s *Store }

func (r *CommentRepoStub) Create(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[comment.ReviewID]; !ok {
		return models.NewNotFoundError("Review", comment.ReviewID)
	}
	stored := *comment
	stored.Author = nil
	r.s.comments[comment.ID] = stored
	return nil
}

func (r *CommentRepoStub) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return &c, nil
}

func (r *CommentRepoStub) Update(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.comments[comment.ID]
	if !ok {
		return models.NewNotFoundError("Comment", comment.ID)
	}
	stored.Text = comment.Text
	stored.UpdatedAt = comment.UpdatedAt
	r.s.comments[comment.ID] = stored
	return nil
}

func (r *CommentRepoStub) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return models.NewNotFoundError("Comment", id)
	}
	delete(r.s.comments, id)
	return nil
}

func (r *CommentRepoStub) ListByReview(_ context.Context, reviewID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	return r.filter(page, func(c *models.Comment) bool { return c.ReviewID == reviewID })
}

func (r *CommentRepoStub) ListByAuthor(_ context.Context, authorID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	return r.filter(page, func(c *models.Comment) bool { return c.AuthorID == authorID })
}

func (r *CommentRepoStub) CountByReviewID(_ context.Context, reviewID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.comments {
		if c.ReviewID == reviewID {
			n++
		}
	}
	return n, nil
}

func (r *CommentRepoStub) CountByReviewIDs(_ context.Context, reviewIDs []string) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[string]struct{}, len(reviewIDs))
	for _, id := range reviewIDs {
		want[id] = struct{}{}
	}
	counts := make(map[string]int64)
	for _, c := range r.s.comments {
		if _, ok := want[c.ReviewID]; ok {
			counts[c.ReviewID]++
		}
	}
	return counts, nil
}

func (r *CommentRepoStub) filter(page models.PageRequest, keep func(*models.Comment) bool) ([]*models.Comment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*models.Comment
	for _, c := range r.s.comments {
		if keep(&c) {
			matched = append(matched, &c)
		}
	}
	return window(matched, page, commentField, func(c *models.Comment) string { return c.ID })
}

// sortKey is the comparable value of one sortable field.
type sortKey struct {
	t time.Time
	n int
	s string
}

func (a sortKey) compare(b sortKey) int {
	if c := a.t.Compare(b.t); c != 0 {
		return c
	}
	if c := cmp.Compare(a.n, b.n); c != 0 {
		return c
	}
	return cmp.Compare(a.s, b.s)
}

func reviewField(rv *models.Review, field string) sortKey {
	switch field {
	case "createdAt":
		return sortKey{t: rv.CreatedAt}
	case "updatedAt":
		return sortKey{t: rv.UpdatedAt}
	case "rating":
		return sortKey{n: rv.Rating}
	}
	return sortKey{}
}

func commentField(c *models.Comment, field string) sortKey {
	switch field {
	case "createdAt":
		return sortKey{t: c.CreatedAt}
	case "updatedAt":
		return sortKey{t: c.UpdatedAt}
	}
	return sortKey{}
}

func wineField(w *models.Wine, field string) sortKey {
	switch field {
	case "name":
		return sortKey{s: w.Name}
	case "year":
		return sortKey{n: w.Year}
	case "createdAt":
		return sortKey{t: w.CreatedAt}
	}
	return sortKey{}
}

// window orders items the way the SQL repositories do (requested fields,
// then id) and cuts out the requested page.
func window[T any](items []T, page models.PageRequest, field func(T, string) sortKey, id func(T) string) ([]T, int64, error) {
	total := int64(len(items))
	slices.SortFunc(items, func(a, b T) int {
		for _, o := range page.Sort {
			c := field(a, o.Field).compare(field(b, o.Field))
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(id(a), id(b))
	})

	start := page.Offset()
	if start >= len(items) {
		return nil, total, nil
	}
	end := min(start+page.Size, len(items))
	return items[start:end], total, nil
}
