package server

import (
	"net/http"
	"strconv"
	"testing"

	"vinoteca/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateWithIdentity(t *testing.T) {
	env := newTestEnv(t)

	t.Run("blank token", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/identity", "", fiber.Map{"identityToken": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, models.CodeInvalidInput, body.Code)
		assert.Equal(t, "identityToken", body.Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/identity", "", "not-an-object")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejected by provider", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/identity", "", fiber.Map{"identityToken": "bad-token"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeUnauthorized, decodeError(t, resp).Code)
	})

	t.Run("same subject maps to one user", func(t *testing.T) {
		first := env.login(t, "sub-ada", "Ada")
		second := env.login(t, "sub-ada", "Ada")
		assert.Equal(t, first.UserID, second.UserID)
		assert.NotEqual(t, first.SessionToken, second.SessionToken)

		var count int64
		require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"no header", http.MethodGet, "/api/reviews", ""},
		{"garbage token", http.MethodGet, "/api/wines", "garbage"},
		{"profile", http.MethodGet, "/api/users/me", ""},
		{"logout", http.MethodPost, "/api/auth/logout", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, models.CodeUnauthorized, decodeError(t, resp).Code)
		})
	}
}

func TestProfileAndLogout(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t, "sub-ada", "Ada")

	resp := env.do(t, http.MethodGet, "/api/users/me", session.SessionToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	decode(t, resp, &me)
	assert.Equal(t, session.UserID, me.ID)
	assert.Equal(t, "Ada", me.DisplayName)

	resp = env.do(t, http.MethodPost, "/api/auth/logout", session.SessionToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/users/me", session.SessionToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// a fresh login is unaffected by the revoked token
	again := env.login(t, "sub-ada", "Ada")
	resp = env.do(t, http.MethodGet, "/api/users/me", again.SessionToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.addWine(t, "w-barolo", "Barolo", 2016)
	ada := env.login(t, "sub-ada", "Ada")
	bob := env.login(t, "sub-bob", "Bob")

	resp := env.do(t, http.MethodPost, "/api/reviews", ada.SessionToken, fiber.Map{
		"wineId": "w-barolo",
		"rating": 4,
		"notes":  "tar and roses",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var review models.Review
	decode(t, resp, &review)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, ada.UserID, review.AuthorID)
	assert.Equal(t, 4, review.Rating)
	assert.Zero(t, review.CommentCount)

	t.Run("other users cannot edit", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/api/reviews/"+review.ID, bob.SessionToken, fiber.Map{"rating": 1})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, models.CodeForbidden, decodeError(t, resp).Code)

		resp = env.do(t, http.MethodDelete, "/api/reviews/"+review.ID, bob.SessionToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("author edits only the given fields", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/api/reviews/"+review.ID, ada.SessionToken, fiber.Map{"rating": 5})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated models.Review
		decode(t, resp, &updated)
		assert.Equal(t, 5, updated.Rating)
		assert.Equal(t, "tar and roses", updated.Notes)
	})

	t.Run("invalid rating on edit", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/api/reviews/"+review.ID, ada.SessionToken, fiber.Map{"rating": 6})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "rating", decodeError(t, resp).Field)
	})

	t.Run("comments count toward the review", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/reviews/"+review.ID+"/comments", bob.SessionToken, fiber.Map{"text": "agreed"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var comment models.Comment
		decode(t, resp, &comment)
		require.NotNil(t, comment.Author)
		assert.Equal(t, "Bob", comment.Author.DisplayName)

		resp = env.do(t, http.MethodGet, "/api/reviews/"+review.ID, bob.SessionToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got models.Review
		decode(t, resp, &got)
		assert.EqualValues(t, 1, got.CommentCount)
	})

	t.Run("delete removes the review and its comments", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, "/api/reviews/"+review.ID, ada.SessionToken, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = env.do(t, http.MethodGet, "/api/reviews/"+review.ID, ada.SessionToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "Review", body.Resource)
		assert.Equal(t, review.ID, body.ID)

		var remaining int64
		require.NoError(t, env.db.Model(&models.Comment{}).Count(&remaining).Error)
		assert.Zero(t, remaining)
	})
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addWine(t, "w1", "Chianti", 2019)
	ada := env.login(t, "sub-ada", "Ada")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantField  string
	}{
		{"rating too low", fiber.Map{"wineId": "w1", "rating": 0}, http.StatusBadRequest, "rating"},
		{"rating too high", fiber.Map{"wineId": "w1", "rating": 6}, http.StatusBadRequest, "rating"},
		{"bad image url", fiber.Map{"wineId": "w1", "rating": 3, "imageUrl": "ftp://x"}, http.StatusBadRequest, "imageUrl"},
		{"unknown wine", fiber.Map{"wineId": "nope", "rating": 3}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/reviews", ada.SessionToken, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantField, decodeError(t, resp).Field)
		})
	}
}

func TestListEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.addWine(t, "w1", "Amarone", 2015)
	env.addWine(t, "w2", "Brunello", 2017)
	ada := env.login(t, "sub-ada", "Ada")
	bob := env.login(t, "sub-bob", "Bob")

	for _, r := range []struct {
		token, wine string
		rating      int
	}{
		{ada.SessionToken, "w1", 5},
		{ada.SessionToken, "w2", 3},
		{bob.SessionToken, "w1", 2},
	} {
		resp := env.do(t, http.MethodPost, "/api/reviews", r.token, fiber.Map{"wineId": r.wine, "rating": r.rating})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	t.Run("reviews filtered", func(t *testing.T) {
		tests := []struct {
			query string
			want  int64
		}{
			{"", 3},
			{"?wineId=w1", 2},
			{"?userId=" + ada.UserID, 2},
			{"?wineId=w1&userId=" + bob.UserID, 1},
		}
		for _, tt := range tests {
			resp := env.do(t, http.MethodGet, "/api/reviews"+tt.query, ada.SessionToken, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, tt.query)
			var page models.Page[models.Review]
			decode(t, resp, &page)
			assert.Equal(t, tt.want, page.TotalElements, tt.query)
		}
	})

	t.Run("reviews sorted by rating", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reviews?sort=rating,desc&size=2", ada.SessionToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page models.Page[models.Review]
		decode(t, resp, &page)
		require.Len(t, page.Content, 2)
		assert.Equal(t, 5, page.Content[0].Rating)
		assert.Equal(t, 3, page.Content[1].Rating)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("page past the end", func(t *testing.T) {
		path := "/api/reviews?page=" + strconv.Itoa(models.MaxPage)
		resp := env.do(t, http.MethodGet, path, ada.SessionToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page models.Page[models.Review]
		decode(t, resp, &page)
		assert.Empty(t, page.Content)
		assert.Equal(t, int64(3), page.TotalElements)
		assert.Equal(t, models.MaxPage, page.Page)

		resp = env.do(t, http.MethodGet, "/api/reviews?page=461168601842738791", ada.SessionToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "page", decodeError(t, resp).Field)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reviews?sort=notes", ada.SessionToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "sort", decodeError(t, resp).Field)
	})

	t.Run("unknown filter target", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/reviews?wineId=missing", ada.SessionToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("wines by name", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/wines", ada.SessionToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page models.Page[models.Wine]
		decode(t, resp, &page)
		require.Len(t, page.Content, 2)
		assert.Equal(t, "Amarone", page.Content[0].Name)

		resp = env.do(t, http.MethodGet, "/api/wines/w2", ada.SessionToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var wine models.Wine
		decode(t, resp, &wine)
		assert.Equal(t, "Brunello", wine.Name)
	})
}

func TestCommentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.addWine(t, "w1", "Soave", 2021)
	ada := env.login(t, "sub-ada", "Ada")
	bob := env.login(t, "sub-bob", "Bob")

	resp := env.do(t, http.MethodPost, "/api/reviews", ada.SessionToken, fiber.Map{"wineId": "w1", "rating": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var review models.Review
	decode(t, resp, &review)

	t.Run("blank text", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/reviews/"+review.ID+"/comments", bob.SessionToken, fiber.Map{"text": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "text", decodeError(t, resp).Field)
	})

	t.Run("unknown review", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/reviews/missing/comments", bob.SessionToken, fiber.Map{"text": "hi"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	resp = env.do(t, http.MethodPost, "/api/reviews/"+review.ID+"/comments", bob.SessionToken, fiber.Map{"text": "crisp"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, resp, &comment)

	t.Run("only the author edits", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/api/comments/"+comment.ID, ada.SessionToken, fiber.Map{"text": "mine now"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(t, http.MethodPut, "/api/comments/"+comment.ID, bob.SessionToken, fiber.Map{"text": "very crisp"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated models.Comment
		decode(t, resp, &updated)
		assert.Equal(t, "very crisp", updated.Text)
	})

	t.Run("listed on the review and under the author", func(t *testing.T) {
		for _, path := range []string{
			"/api/reviews/" + review.ID + "/comments",
			"/api/users/" + bob.UserID + "/comments",
		} {
			resp := env.do(t, http.MethodGet, path, ada.SessionToken, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)
			var page models.Page[models.Comment]
			decode(t, resp, &page)
			require.Len(t, page.Content, 1, path)
			require.NotNil(t, page.Content[0].Author, path)
			assert.Equal(t, bob.UserID, page.Content[0].Author.ID, path)
		}
	})

	t.Run("unknown author", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/users/missing/comments", ada.SessionToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, ada.SessionToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, bob.SessionToken, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, bob.SessionToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"])

	env.redis.Close()
	resp = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decodeError(t, resp).Code)
}
