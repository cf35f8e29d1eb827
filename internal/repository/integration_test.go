//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"vinoteca/internal/database"
	"vinoteca/internal/models"
	"vinoteca/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts a disposable PostgreSQL, applies the embedded SQL
// migrations and returns a connected gorm handle.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vinoteca_test"),
		tcpostgres.WithUsername("vinoteca"),
		tcpostgres.WithPassword("vinoteca"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx, db))
	return db
}

func TestRepositories_AgainstPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	users := repository.NewUserRepository(db)
	wines := repository.NewWineRepository(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	author := &models.User{ID: uuid.NewString(), DisplayName: "Ana", Email: "ana@example.com", ExternalSubjectID: "sub-ana", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, author))

	dup := *author
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, users.Create(ctx, &dup), repository.ErrDuplicate)

	wine := &models.Wine{ID: uuid.NewString(), Name: "Etna Rosso", Winery: "Benanti", Country: "Italy", Grape: "Nerello Mascalese", Year: 2020}
	require.NoError(t, wines.Create(ctx, wine))

	review := &models.Review{ID: uuid.NewString(), AuthorID: author.ID, WineID: wine.ID, Rating: 5, Notes: "Great!", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, reviews.Create(ctx, review))

	for i := 0; i < 2; i++ {
		ts := now.Add(time.Duration(i) * time.Second)
		require.NoError(t, comments.Create(ctx, &models.Comment{
			ID: uuid.NewString(), ReviewID: review.ID, AuthorID: author.ID, Text: "cheers", CreatedAt: ts, UpdatedAt: ts,
		}))
	}

	counts, err := comments.CountByReviewIDs(ctx, []string{review.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[review.ID])

	page := models.PageRequest{Size: 10, Sort: []models.SortOrder{{Field: "createdAt", Desc: true}}}
	got, total, err := reviews.ListByWineAndAuthor(ctx, wine.ID, author.ID, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "Great!", got[0].Notes)

	require.NoError(t, reviews.Delete(ctx, review.ID))
	_, err = reviews.GetByID(ctx, review.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	left, err := comments.CountByReviewID(ctx, review.ID)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestMigrations_RollbackAndReapply(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	latest := database.GetMigrations()[len(database.GetMigrations())-1]
	require.NoError(t, database.RollbackMigration(ctx, db, latest.Version))
	require.NoError(t, database.RunMigrations(ctx, db))
}
