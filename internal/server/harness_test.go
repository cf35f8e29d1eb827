package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vinoteca/internal/config"
	"vinoteca/internal/database"
	"vinoteca/internal/identity"
	"vinoteca/internal/models"
	"vinoteca/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockVerifier is a mock of the identity.Verifier interface
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, identityToken string) (*identity.VerifiedIdentity, error) {
	args := m.Called(ctx, identityToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.VerifiedIdentity), args.Error(1)
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	redis    *miniredis.Miniredis
	verifier *MockVerifier
}

func testConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		JWTSecret:       "server-test-secret",
		SessionTokenTTL: time.Hour,
		SessionIssuer:   "vinoteca",
		SessionAudience: "vinoteca-api",
		AuthRateLimit:   1000,
		AuthRateWindow:  time.Minute,
		WriteRateLimit:  1000,
		WriteRateWindow: time.Minute,
	}
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.RunMigrations(context.Background(), db))
	return db
}

// newTestEnv builds the full app over a migrated in-memory database and a
// miniredis instance.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openSQLite(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "bad-token").
		Return(nil, models.NewUnauthorizedError("Invalid identity token")).Maybe()

	s, err := NewServerWithDeps(testConfig(), db, rdb, verifier)
	require.NoError(t, err)
	return &testEnv{app: s.App(), db: db, redis: mr, verifier: verifier}
}

func (e *testEnv) addWine(t *testing.T, id, name string, year int) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, e.db.Create(&models.Wine{
		ID: id, Name: name, Year: year, Country: "Italy", CreatedAt: now, UpdatedAt: now,
	}).Error)
}

// login registers subject with the mock provider and signs in through the API.
func (e *testEnv) login(t *testing.T, subject, name string) service.AuthResult {
	t.Helper()
	idToken := "id-token-" + subject
	e.verifier.On("Verify", mock.Anything, idToken).Return(&identity.VerifiedIdentity{
		ExternalSubjectID: subject,
		Email:             subject + "@example.test",
		DisplayName:       name,
	}, nil).Maybe()

	resp := e.do(t, http.MethodPost, "/api/auth/identity", "", fiber.Map{"identityToken": idToken})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result service.AuthResult
	decode(t, resp, &result)
	require.NotEmpty(t, result.SessionToken)
	return result
}

func (e *testEnv) do(t *testing.T, method, path, sessionToken string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	decode(t, resp, &body)
	return body
}
