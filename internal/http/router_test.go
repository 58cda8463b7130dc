package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-bookmark-api/internal/auth"
	"github.com/redmonkez12/go-bookmark-api/internal/bookmark"
	"github.com/redmonkez12/go-bookmark-api/internal/config"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
	"github.com/redmonkez12/go-bookmark-api/internal/ratelimit"
	"github.com/redmonkez12/go-bookmark-api/internal/user"
)

// userStore serves both the credential and profile stores
type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func (s *userStore) Create(_ context.Context, email, hash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: hash, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *userStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) Update(_ context.Context, id uuid.UUID, patch user.Patch) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if patch.FirstName != nil {
		u.FirstName = patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = patch.LastName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	cp := *u
	return &cp, nil
}

type bookmarkStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]bookmark.Bookmark
}

func (s *bookmarkStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []bookmark.Bookmark{}
	for _, b := range s.rows {
		if b.UserID == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookmarkStore) GetForOwner(_ context.Context, id, owner uuid.UUID) (*bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || b.UserID != owner {
		return nil, bookmark.ErrNotFound
	}
	return &b, nil
}

func (s *bookmarkStore) Create(_ context.Context, owner uuid.UUID, d bookmark.Draft) (*bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := bookmark.Bookmark{ID: uuid.New(), UserID: owner, Title: d.Title, Link: d.Link, Description: d.Description}
	s.rows[b.ID] = b
	return &b, nil
}

func (s *bookmarkStore) RunInTx(ctx context.Context, fn func(context.Context, bookmark.TxStore) error) error {
	return fn(ctx, s)
}

func (s *bookmarkStore) LockByID(_ context.Context, id uuid.UUID) (*bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, bookmark.ErrNotFound
	}
	return &b, nil
}

func (s *bookmarkStore) Update(_ context.Context, id uuid.UUID, p bookmark.Patch) (*bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.rows[id]
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Link != nil {
		b.Link = *p.Link
	}
	if p.Description != nil {
		b.Description = p.Description
	}
	s.rows[id] = b
	return &b, nil
}

func (s *bookmarkStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	users  *userStore
}

func newTestAPI(t *testing.T, env string) *testAPI {
	t.Helper()

	cfg := &config.Config{Server: config.ServerConfig{Env: env}}
	logger := logging.New(io.Discard, false)

	tokens, err := auth.NewJWTService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	hasher := auth.NewArgon2Hasher(config.HashConfig{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 32, SaltLen: 16})

	users := &userStore{users: map[uuid.UUID]*user.User{}}
	bookmarks := &bookmarkStore{rows: map[uuid.UUID]bookmark.Bookmark{}}

	router := NewRouter(cfg, Handlers{
		Auth:     auth.NewHandler(auth.NewService(users, hasher, tokens, logger, 15*time.Minute), ratelimit.Noop{}),
		User:     user.NewHandler(user.NewService(users)),
		Bookmark: bookmark.NewHandler(bookmark.NewService(bookmarks)),
	}, auth.NewMiddleware(tokens, users), logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testAPI{t: t, server: server, users: users}
}

func (a *testAPI) do(method, path, token, body string) (int, []byte) {
	a.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, data
}

func (a *testAPI) signupAndSignin(email, password string) string {
	a.t.Helper()

	creds := `{"email":"` + email + `","password":"` + password + `"}`
	status, _ := a.do(http.MethodPost, "/auth/signup", "", creds)
	require.Equal(a.t, http.StatusCreated, status)

	status, body := a.do(http.MethodPost, "/auth/signin", "", creds)
	require.Equal(a.t, http.StatusOK, status)

	var tok map[string]string
	require.NoError(a.t, json.Unmarshal(body, &tok))
	require.NotEmpty(a.t, tok["access_token"])
	return tok["access_token"]
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t, "prod")

	status, body := api.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"api is running"}`, string(body))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	api := newTestAPI(t, "prod")

	resp, err := api.server.Client().Get(api.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", resp.Header.Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestSecurityHeaders_Development(t *testing.T) {
	h := SecurityHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestRouter_SwaggerOnlyInDevelopment(t *testing.T) {
	status, _ := newTestAPI(t, "prod").do(http.MethodGet, "/swagger/index.html", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = newTestAPI(t, "dev").do(http.MethodGet, "/swagger/index.html", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, "prod")

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/users/profile"},
		{http.MethodPatch, "/users"},
		{http.MethodGet, "/bookmarks"},
		{http.MethodPost, "/bookmarks"},
		{http.MethodGet, "/bookmarks/" + uuid.NewString()},
		{http.MethodPatch, "/bookmarks/" + uuid.NewString()},
		{http.MethodDelete, "/bookmarks/" + uuid.NewString()},
	} {
		status, _ := api.do(route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, status, route.method+" "+route.path)

		status, _ = api.do(route.method, route.path, "not-a-token", "")
		assert.Equal(t, http.StatusUnauthorized, status, route.method+" "+route.path)
	}
}

func TestRouter_AuthFlow(t *testing.T) {
	api := newTestAPI(t, "prod")

	status, _ := api.do(http.MethodPost, "/auth/signup", "", `{"password":"test"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/auth/signin", "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	token := api.signupAndSignin("test@gmail.com", "test")

	status, _ = api.do(http.MethodPost, "/auth/signup", "", `{"email":"test@gmail.com","password":"other"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodPost, "/auth/signin", "", `{"email":"test@gmail.com","password":"wrong"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := api.do(http.MethodGet, "/users/profile", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"email":"test@gmail.com"`)
	assert.NotContains(t, string(body), "argon2id")

	status, body = api.do(http.MethodPatch, "/users", token, `{"firstName":"Ada"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"firstName":"Ada"`)
}

func TestRouter_BookmarkOwnership(t *testing.T) {
	api := newTestAPI(t, "prod")
	alice := api.signupAndSignin("alice@example.com", "alice")
	bob := api.signupAndSignin("bob@example.com", "bob")

	status, body := api.do(http.MethodGet, "/bookmarks", alice, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = api.do(http.MethodPost, "/bookmarks", alice, `{"title":"Go","link":"https://go.dev"}`)
	require.Equal(t, http.StatusCreated, status)
	var created bookmark.Bookmark
	require.NoError(t, json.Unmarshal(body, &created))
	path := "/bookmarks/" + created.ID.String()

	status, _ = api.do(http.MethodGet, path, bob, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodPatch, path, bob, `{"title":"bob's now"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodDelete, path, bob, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodGet, path, alice, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"title":"Go"`)

	status, _ = api.do(http.MethodGet, "/bookmarks/42", alice, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodDelete, path, alice, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = api.do(http.MethodGet, "/bookmarks", alice, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRouter_TokenForRemovedUserIsRejected(t *testing.T) {
	api := newTestAPI(t, "prod")
	token := api.signupAndSignin("gone@example.com", "secret")

	api.users.mu.Lock()
	for id := range api.users.users {
		delete(api.users.users, id)
	}
	api.users.mu.Unlock()

	status, body := api.do(http.MethodPost, "/bookmarks", token, `{"title":"Go","link":"https://go.dev"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "UNAUTHORIZED")

	status, _ = api.do(http.MethodGet, "/bookmarks", token, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
