package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/config"
	"github.com/gitport/gitport/internal/migration"
	"github.com/gitport/gitport/internal/models"
	"github.com/gitport/gitport/internal/storage"
)

type testServer struct {
	router http.Handler
	db     *storage.Database
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := storage.NewDatabase(config.DatabaseConfig{
		Type: storage.DBTypeSQLite,
		DSN:  filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	jwtManager, err := auth.NewJWTManager("test-secret-key", 24)
	require.NoError(t, err)

	cfg := &config.Config{}
	srv := NewServer(cfg, db, jwtManager, slog.Default())

	return &testServer{
		router: srv.Router(),
		db:     db,
		jwt:    jwtManager,
	}
}

// signup creates a user directly in the store and returns a session token.
func (ts *testServer) signup(t *testing.T, email string, premium bool) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		IsPremium:    premium,
	}
	require.NoError(t, ts.db.CreateUser(context.Background(), user))

	token, err := ts.jwt.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/dashboard", "/api/migrations", "/api/repositories", "/api/settings"} {
		rec := ts.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"], path)
	}
}

func TestSignupEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/signup", "", map[string]any{
		"email":     "alice@example.com",
		"password":  "password123",
		"firstName": "Alice",
		"lastName":  "Smith",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice Smith", user["name"])
	// the hash must never cross the boundary
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	// duplicate email
	rec = ts.request(t, http.MethodPost, "/api/signup", "", map[string]any{
		"email":    "ALICE@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeBody(t, rec)["error"])
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/signup", "", map[string]any{
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/signup", "", map[string]any{
		"email":    "not-an-email",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/signup", "", map[string]any{
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "alice@example.com", false)

	rec := ts.request(t, http.MethodPost, "/api/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// wrong password and unknown account are indistinguishable
	rec = ts.request(t, http.MethodPost, "/api/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMigrationEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "alice@example.com", false)

	rec := ts.request(t, http.MethodPost, "/api/migrations", token, map[string]any{
		"title":          "widgets to gitlab",
		"sourceUrl":      "https://github.com/acme/widgets",
		"sourcePlatform": "GITHUB",
		"targetPlatform": "GITLAB",
		"type":           "CODE_ONLY",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	m := body["migration"].(map[string]any)
	assert.Equal(t, "PENDING", m["status"])
	assert.Equal(t, float64(0), m["progress"])
	assert.NotEmpty(t, m["sourceRepoId"])
}

func TestCreateMigrationValidation(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "alice@example.com", false)

	base := map[string]any{
		"title":          "widgets to gitlab",
		"sourceUrl":      "https://github.com/acme/widgets",
		"sourcePlatform": "GITHUB",
		"targetPlatform": "GITLAB",
	}

	missingTitle := cloneMap(base)
	delete(missingTitle, "title")
	rec := ts.request(t, http.MethodPost, "/api/migrations", token, missingTitle)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	badURL := cloneMap(base)
	badURL["sourceUrl"] = "not a url"
	rec = ts.request(t, http.MethodPost, "/api/migrations", token, badURL)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_url", decodeBody(t, rec)["code"])

	samePlatform := cloneMap(base)
	samePlatform["targetPlatform"] = "GITHUB"
	rec = ts.request(t, http.MethodPost, "/api/migrations", token, samePlatform)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "same_platform", decodeBody(t, rec)["code"])

	badPlatform := cloneMap(base)
	badPlatform["sourcePlatform"] = "SOURCEFORGE"
	rec = ts.request(t, http.MethodPost, "/api/migrations", token, badPlatform)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMigrationPremiumGate(t *testing.T) {
	ts := newTestServer(t)
	_, freeToken := ts.signup(t, "free@example.com", false)
	_, premiumToken := ts.signup(t, "premium@example.com", true)

	body := map[string]any{
		"title":          "mirror",
		"sourceUrl":      "https://github.com/acme/widgets",
		"sourcePlatform": "GITHUB",
		"targetPlatform": "GITLAB",
		"type":           "FULL_MIRROR",
	}

	rec := ts.request(t, http.MethodPost, "/api/migrations", freeToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "premium_required", decodeBody(t, rec)["code"])

	rec = ts.request(t, http.MethodPost, "/api/migrations", premiumToken, body)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListMigrationsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "alice@example.com", false)

	for i := 0; i < 3; i++ {
		rec := ts.request(t, http.MethodPost, "/api/migrations", token, map[string]any{
			"title":          fmt.Sprintf("migration %d", i),
			"sourceUrl":      fmt.Sprintf("https://github.com/acme/repo%d", i),
			"sourcePlatform": "GITHUB",
			"targetPlatform": "GITLAB",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.request(t, http.MethodGet, "/api/migrations?limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Len(t, body["migrations"], 2)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, true, pagination["hasMore"])

	rec = ts.request(t, http.MethodGet, "/api/migrations?limit=2&offset=2", token, nil)
	body = decodeBody(t, rec)
	assert.Len(t, body["migrations"], 1)
	assert.Equal(t, false, body["pagination"].(map[string]any)["hasMore"])

	// status filter input is case-insensitive
	rec = ts.request(t, http.MethodGet, "/api/migrations?status=pending", token, nil)
	body = decodeBody(t, rec)
	assert.Len(t, body["migrations"], 3)

	rec = ts.request(t, http.MethodGet, "/api/migrations?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMigrationEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "alice@example.com", false)
	_, otherToken := ts.signup(t, "bob@example.com", false)

	rec := ts.request(t, http.MethodPost, "/api/migrations", token, map[string]any{
		"title":          "widgets to gitlab",
		"sourceUrl":      "https://github.com/acme/widgets",
		"sourcePlatform": "GITHUB",
		"targetPlatform": "GITLAB",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["migration"].(map[string]any)["id"].(string)

	rec = ts.request(t, http.MethodGet, "/api/migrations/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	logs := body["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "Migration created and queued for processing", logs[0].(map[string]any)["message"])

	// another user's migration is a 404, not a 403
	rec = ts.request(t, http.MethodGet, "/api/migrations/"+id, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/migrations/nonexistent", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRepositoryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "alice@example.com", false)

	rec := ts.request(t, http.MethodPost, "/api/repositories", token, map[string]any{
		"url": "https://github.com/acme/widgets",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	repo := decodeBody(t, rec)["repository"].(map[string]any)
	assert.Equal(t, "GITHUB", repo["platform"])
	assert.Equal(t, "acme/widgets", repo["fullName"])

	// equivalent URL spelling upserts the same row
	rec = ts.request(t, http.MethodPost, "/api/repositories", token, map[string]any{
		"url": "https://github.com/acme/widgets.git",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, repo["id"], decodeBody(t, rec)["repository"].(map[string]any)["id"])

	rec = ts.request(t, http.MethodGet, "/api/repositories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	repos := decodeBody(t, rec)["repositories"].([]any)
	assert.Len(t, repos, 1)

	rec = ts.request(t, http.MethodPost, "/api/repositories", token, map[string]any{
		"url": "https://codeberg.org/acme/widgets",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.signup(t, "alice@example.com", false)

	// empty account: successRate is 100 by definition
	rec := ts.request(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)["stats"].(map[string]any)
	assert.Equal(t, float64(0), stats["totalMigrations"])
	assert.Equal(t, float64(100), stats["successRate"])
	assert.Equal(t, "0 B", stats["dataTransferred"])

	// one completed migration with 1536 bytes transferred
	rec = ts.request(t, http.MethodPost, "/api/migrations", token, map[string]any{
		"title":          "widgets to gitlab",
		"sourceUrl":      "https://github.com/acme/widgets",
		"sourcePlatform": "GITHUB",
		"targetPlatform": "GITLAB",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["migration"].(map[string]any)["id"].(string)

	ctx := context.Background()
	m, err := ts.db.GetMigration(ctx, user.ID, id)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, migration.Transition(m, models.StatusInProgress, now))
	require.NoError(t, migration.SetProgress(m, 100))
	m.MigratedSize = 1536
	m.TotalSize = 1536
	require.NoError(t, migration.Transition(m, models.StatusCompleted, now))
	require.NoError(t, ts.db.UpdateMigrationState(ctx, m))

	rec = ts.request(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	stats = body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["totalMigrations"])
	assert.Equal(t, float64(1), stats["completedMigrations"])
	assert.Equal(t, float64(100), stats["successRate"])
	assert.Equal(t, "1.5 KB", stats["dataTransferred"])
	assert.Equal(t, "1536", stats["dataTransferredBytes"])
	assert.Equal(t, float64(1), stats["totalRepositories"])

	history := body["migrationHistory"].([]any)
	require.Len(t, history, 1)
	assert.Equal(t, "COMPLETED", history[0].(map[string]any)["status"])

	recent := body["recentMigrations"].([]any)
	require.Len(t, recent, 1)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "alice@example.com", false)

	rec := ts.request(t, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeBody(t, rec)["settings"].(map[string]any)
	assert.Equal(t, "light", settings["theme"])
	assert.Equal(t, float64(2), settings["maxConcurrentMigrations"])

	rec = ts.request(t, http.MethodPut, "/api/settings", token, map[string]any{
		"theme":                   "dark",
		"maxConcurrentMigrations": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	settings = decodeBody(t, rec)["settings"].(map[string]any)
	assert.Equal(t, "dark", settings["theme"])
	assert.Equal(t, float64(4), settings["maxConcurrentMigrations"])

	rec = ts.request(t, http.MethodPut, "/api/settings", token, map[string]any{
		"theme": "neon",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.request(t, http.MethodPut, "/api/settings", token, map[string]any{
		"maxConcurrentMigrations": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
