package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-bookmark-api/internal/auth"
	"github.com/redmonkez12/go-bookmark-api/internal/authctx"
	"github.com/redmonkez12/go-bookmark-api/internal/httputil"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
)

// newTestRouter mounts the handler the way the API does, with the caller
// already authenticated as userID.
func newTestRouter(svc BookmarkService, userID uuid.UUID) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authctx.WithUser(r.Context(), userID)))
		})
	})
	r.Get("/bookmarks", h.ListBookmarks)
	r.Post("/bookmarks", h.CreateBookmark)
	r.Get("/bookmarks/{id}", h.GetBookmark)
	r.Patch("/bookmarks/{id}", h.EditBookmark)
	r.Delete("/bookmarks/{id}", h.DeleteBookmark)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_Lifecycle(t *testing.T) {
	owner := uuid.New()
	router := newTestRouter(NewService(newMemoryStore()), owner)

	rec := do(t, router, http.MethodGet, "/bookmarks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/bookmarks", `{"title":"Go","link":"https://go.dev","description":"home"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, owner.String(), created["userId"])
	assert.Contains(t, created, "createdAt")
	id := created["id"].(string)

	rec = do(t, router, http.MethodGet, "/bookmarks/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, "/bookmarks/"+id, `{"title":"Go home"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var edited Bookmark
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edited))
	assert.Equal(t, "Go home", edited.Title)
	assert.Equal(t, "https://go.dev", edited.Link)
	require.NotNil(t, edited.Description)
	assert.Equal(t, "home", *edited.Description)

	rec = do(t, router, http.MethodPatch, "/bookmarks/"+id, `{"description":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Contains(t, cleared, "description")
	assert.Nil(t, cleared["description"])

	rec = do(t, router, http.MethodDelete, "/bookmarks/"+id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/bookmarks/"+id, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_ForeignBookmark(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)
	b, err := svc.Create(context.Background(), uuid.New(), Draft{Title: "Go", Link: "https://go.dev"})
	require.NoError(t, err)

	router := newTestRouter(svc, uuid.New())
	path := "/bookmarks/" + b.ID.String()

	rec := do(t, router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPatch, path, `{"title":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "access to resource denied", body.Error)
	assert.Equal(t, httputil.CodeAccessDenied, body.Code)

	rec = do(t, router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, "Go", store.rows[b.ID].Title)
}

func TestHandler_MissingBookmarkIsDenied(t *testing.T) {
	router := newTestRouter(NewService(newMemoryStore()), uuid.New())
	path := "/bookmarks/" + uuid.NewString()

	rec := do(t, router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, httputil.CodeAccessDenied, decodeError(t, rec).Code)

	rec = do(t, router, http.MethodPatch, path, `{"title":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_BadRequests(t *testing.T) {
	router := newTestRouter(NewService(newMemoryStore()), uuid.New())

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode string
	}{
		{"malformed id on get", http.MethodGet, "/bookmarks/42", "", httputil.CodeInvalidID},
		{"malformed id on patch", http.MethodPatch, "/bookmarks/42", `{"title":"x"}`, httputil.CodeInvalidID},
		{"malformed id on delete", http.MethodDelete, "/bookmarks/not-a-uuid", "", httputil.CodeInvalidID},
		{"missing title", http.MethodPost, "/bookmarks", `{"link":"https://go.dev"}`, httputil.CodeValidationFailed},
		{"missing link", http.MethodPost, "/bookmarks", `{"title":"Go"}`, httputil.CodeValidationFailed},
		{"bad link", http.MethodPost, "/bookmarks", `{"title":"Go","link":"go dev"}`, httputil.CodeValidationFailed},
		{"empty body", http.MethodPost, "/bookmarks", "", httputil.CodeValidationFailed},
		{"malformed json", http.MethodPost, "/bookmarks", `{"title":`, httputil.CodeInvalidRequestBody},
		{"empty title on edit", http.MethodPatch, "/bookmarks/" + uuid.NewString(), `{"title":""}`, httputil.CodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

type failingService struct{ BookmarkService }

func (failingService) List(context.Context, uuid.UUID) ([]Bookmark, error) {
	return nil, errors.New("db down")
}

func (failingService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return errors.New("db down")
}

func TestHandler_InternalErrors(t *testing.T) {
	router := newTestRouter(failingService{}, uuid.New())

	rec := do(t, router, http.MethodGet, "/bookmarks", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, httputil.CodeInternalError, decodeError(t, rec).Code)

	rec = do(t, router, http.MethodDelete, "/bookmarks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_RequiresAuthenticatedUser(t *testing.T) {
	h := NewHandler(NewService(newMemoryStore()))
	rec := httptest.NewRecorder()
	h.ListBookmarks(rec, httptest.NewRequest(http.MethodGet, "/bookmarks", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRespondAccessError_WrappedNotAuthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	respondAccessError(rec, logging.GetLoggerFromContext(context.Background()), "edit", uuid.New(), errors.Join(errors.New("edit bookmark"), auth.ErrNotAuthorized))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
