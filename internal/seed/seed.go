// Package seed fills a development database with the wine catalog and
// plausible users, reviews and comments. All community data is written
// through the services so seeded rows obey the same rules as API writes.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vinoteca/internal/identity"
	"vinoteca/internal/models"
	"vinoteca/internal/observability"
	"vinoteca/internal/repository"
	"vinoteca/internal/service"
	"vinoteca/internal/token"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers          int
	ReviewsPerUser    int
	CommentsPerReview int
	// MaxDays spreads review and comment timestamps over the past MaxDays days.
	MaxDays int
	// RandSeed makes the fake data reproducible; zero picks a time-based seed.
	RandSeed    int64
	ShouldClean bool
}

// DefaultOptions is what `vinoctl seed` uses without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:          12,
		ReviewsPerUser:    4,
		CommentsPerReview: 2,
		MaxDays:           90,
	}
}

// Result counts what a run created.
type Result struct {
	Wines    int
	Users    int
	Reviews  int
	Comments int
}

// Seed inserts any missing catalog wines and then opts.NumUsers fake users
// with their reviews and comments.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.RandSeed == 0 {
		opts.RandSeed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	faker := gofakeit.New(opts.RandSeed)

	observability.GlobalLogger.InfoContext(ctx, "seeding database",
		slog.Int("users", opts.NumUsers),
		slog.Int("reviews_per_user", opts.ReviewsPerUser),
		slog.Int64("rand_seed", opts.RandSeed),
	)

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			return nil, err
		}
	}

	wines, created, err := seedWines(ctx, repository.NewWineRepository(db))
	if err != nil {
		return nil, err
	}
	result := &Result{Wines: created}

	s, err := newSeeder(db, faker, opts)
	if err != nil {
		return nil, err
	}

	users, err := s.users(ctx, opts.NumUsers)
	if err != nil {
		return result, err
	}
	result.Users = len(users)

	reviews, err := s.reviews(ctx, users, wines, opts.ReviewsPerUser)
	if err != nil {
		return result, err
	}
	result.Reviews = len(reviews)

	comments, err := s.comments(ctx, users, reviews, opts.CommentsPerReview)
	if err != nil {
		return result, err
	}
	result.Comments = comments

	observability.GlobalLogger.InfoContext(ctx, "seeding complete",
		slog.Int("wines", result.Wines),
		slog.Int("users", result.Users),
		slog.Int("reviews", result.Reviews),
		slog.Int("comments", result.Comments),
	)
	return result, nil
}

// clearData removes community data. Catalog wines survive.
func clearData(ctx context.Context, db *gorm.DB) error {
	observability.GlobalLogger.InfoContext(ctx, "clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"comments", "reviews", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Wines inserts catalog entries that are not present yet and reports how
// many it created.
func Wines(ctx context.Context, db *gorm.DB) (int, error) {
	_, created, err := seedWines(ctx, repository.NewWineRepository(db))
	return created, err
}

// seedWines inserts catalog entries that are not present yet and returns the
// full catalog.
func seedWines(ctx context.Context, repo repository.WineRepository) ([]models.Wine, int, error) {
	wines, err := Catalog()
	if err != nil {
		return nil, 0, err
	}

	created := 0
	now := time.Now().UTC()
	for i := range wines {
		_, err := repo.GetByID(ctx, wines[i].ID)
		if err == nil {
			continue
		}
		if !models.IsCode(err, models.CodeNotFound) {
			return nil, created, err
		}
		wines[i].CreatedAt = now
		wines[i].UpdatedAt = now
		if err := repo.Create(ctx, &wines[i]); err != nil {
			return nil, created, fmt.Errorf("create wine %q: %w", wines[i].Name, err)
		}
		created++
	}
	return wines, created, nil
}

type seeder struct {
	faker      *gofakeit.Faker
	maxDays    int
	identities *fakeIdentities
	authSvc    *service.AuthService
	reviewSvc  *service.ReviewService
	commentSvc *service.CommentService
}

func newSeeder(db *gorm.DB, faker *gofakeit.Faker, opts Options) (*seeder, error) {
	// seeded sessions are thrown away, so a throwaway secret is enough
	sessions, err := token.NewIssuer(token.Config{Secret: uuid.NewString(), TTL: time.Minute})
	if err != nil {
		return nil, err
	}

	s := &seeder{
		faker:      faker,
		maxDays:    opts.MaxDays,
		identities: newFakeIdentities(),
	}

	userRepo := repository.NewUserRepository(db)
	wineRepo := repository.NewWineRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	backdated := service.WithClock(s.pastTime)

	s.authSvc = service.NewAuthService(s.identities, userRepo, sessions, token.NewRevoker(nil, nil), backdated)
	s.reviewSvc = service.NewReviewService(reviewRepo, commentRepo, wineRepo, userRepo, backdated)
	s.commentSvc = service.NewCommentService(commentRepo, reviewRepo, userRepo, backdated)
	return s, nil
}

// pastTime picks a moment within the last maxDays days.
func (s *seeder) pastTime() time.Time {
	back := time.Duration(s.faker.Number(0, s.maxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}

// users signs count fake people in through the identity flow, which
// provisions their accounts.
func (s *seeder) users(ctx context.Context, count int) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		subject := "seed|" + s.faker.UUID()
		idToken := s.identities.register(&identity.VerifiedIdentity{
			ExternalSubjectID: subject,
			Email:             s.faker.Email(),
			DisplayName:       first + " " + last,
			AvatarURL:         fmt.Sprintf("https://i.pravatar.cc/150?u=%s", subject),
		})

		res, err := s.authSvc.AuthenticateWithIdentityToken(ctx, idToken)
		if err != nil {
			return ids, fmt.Errorf("provision user %d: %w", i, err)
		}
		ids = append(ids, res.UserID)
	}
	return ids, nil
}

// reviews gives every user up to perUser reviews of distinct wines.
func (s *seeder) reviews(ctx context.Context, users []string, wines []models.Wine, perUser int) ([]*models.Review, error) {
	if perUser > len(wines) {
		perUser = len(wines)
	}

	var out []*models.Review
	for _, userID := range users {
		order := s.faker.Rand.Perm(len(wines))
		for _, idx := range order[:perUser] {
			in := service.CreateReviewInput{
				AuthorID: userID,
				WineID:   wines[idx].ID,
				Rating:   s.faker.Number(models.MinRating, models.MaxRating),
			}
			if s.faker.Bool() {
				notes := s.faker.Paragraph(1, 3, 12, " ")
				in.Notes = &notes
			}
			if s.faker.Number(0, 3) == 0 {
				img := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
				in.ImageURL = &img
			}

			review, err := s.reviewSvc.CreateReview(ctx, in)
			if err != nil {
				return out, fmt.Errorf("create review: %w", err)
			}
			out = append(out, review)
		}
	}
	return out, nil
}

// comments adds up to perReview comments from random users to each review.
func (s *seeder) comments(ctx context.Context, users []string, reviews []*models.Review, perReview int) (int, error) {
	if len(users) == 0 || perReview <= 0 {
		return 0, nil
	}

	count := 0
	for _, review := range reviews {
		n := s.faker.Number(0, perReview)
		for i := 0; i < n; i++ {
			_, err := s.commentSvc.CreateComment(ctx, service.CreateCommentInput{
				AuthorID: users[s.faker.Number(0, len(users)-1)],
				ReviewID: review.ID,
				Text:     s.faker.Sentence(s.faker.Number(4, 16)),
			})
			if err != nil {
				return count, fmt.Errorf("create comment: %w", err)
			}
			count++
		}
	}
	return count, nil
}
