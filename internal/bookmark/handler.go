package bookmark

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/go-bookmark-api/internal/auth"
	"github.com/redmonkez12/go-bookmark-api/internal/authctx"
	"github.com/redmonkez12/go-bookmark-api/internal/httputil"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
)

// BookmarkService is implemented by Service
type BookmarkService interface {
	List(ctx context.Context, requesterID uuid.UUID) ([]Bookmark, error)
	Get(ctx context.Context, requesterID, id uuid.UUID) (*Bookmark, error)
	Create(ctx context.Context, requesterID uuid.UUID, draft Draft) (*Bookmark, error)
	Edit(ctx context.Context, requesterID, id uuid.UUID, patch Patch) (*Bookmark, error)
	Delete(ctx context.Context, requesterID, id uuid.UUID) error
}

// Handler contains HTTP handlers for the /bookmarks endpoints
type Handler struct {
	service BookmarkService
}

func NewHandler(service BookmarkService) *Handler {
	return &Handler{service: service}
}

// CreateBookmarkRequest represents the create bookmark request body
type CreateBookmarkRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Link        string  `json:"link" validate:"required,url"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

// EditBookmarkRequest represents the edit bookmark request body
type EditBookmarkRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Link        *string `json:"link" validate:"omitnil,url"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

// ListBookmarks returns the caller's bookmarks
// @Summary      List bookmarks
// @Tags         bookmarks
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Bookmark
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /bookmarks [get]
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	bookmarks, err := h.service.List(r.Context(), userID)
	if err != nil {
		logger.Error("list bookmarks failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list bookmarks", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, bookmarks, http.StatusOK)
}

// GetBookmark returns one of the caller's bookmarks
// @Summary      Get bookmark
// @Tags         bookmarks
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Bookmark ID"
// @Success      200 {object} Bookmark
// @Failure      400 {object} httputil.ErrorResponse "Invalid ID"
// @Failure      403 {object} httputil.ErrorResponse "Access to resource denied"
// @Router       /bookmarks/{id} [get]
func (h *Handler) GetBookmark(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		respondAccessError(w, logger, "get", id, err)
		return
	}

	httputil.RespondJSON(w, b, http.StatusOK)
}

// CreateBookmark stores a new bookmark for the caller
// @Summary      Create bookmark
// @Tags         bookmarks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBookmarkRequest true "Bookmark"
// @Success      201 {object} Bookmark
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /bookmarks [post]
func (h *Handler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateBookmarkRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("invalid create bookmark request", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.ErrorCode(err), http.StatusBadRequest)
		return
	}

	b, err := h.service.Create(r.Context(), userID, Draft{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		logger.Error("create bookmark failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create bookmark", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("bookmark created", "bookmark_id", b.ID)
	httputil.RespondJSON(w, b, http.StatusCreated)
}

// EditBookmark updates one of the caller's bookmarks
// @Summary      Edit bookmark
// @Tags         bookmarks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Bookmark ID"
// @Param        request body EditBookmarkRequest true "Fields to change"
// @Success      200 {object} Bookmark
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse "Access to resource denied"
// @Router       /bookmarks/{id} [patch]
func (h *Handler) EditBookmark(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	var req EditBookmarkRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("invalid edit bookmark request", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.ErrorCode(err), http.StatusBadRequest)
		return
	}

	b, err := h.service.Edit(r.Context(), userID, id, Patch{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		respondAccessError(w, logger, "edit", id, err)
		return
	}

	httputil.RespondJSON(w, b, http.StatusOK)
}

// DeleteBookmark removes one of the caller's bookmarks
// @Summary      Delete bookmark
// @Tags         bookmarks
// @Security     BearerAuth
// @Param        id path string true "Bookmark ID"
// @Success      204
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse "Access to resource denied"
// @Router       /bookmarks/{id} [delete]
func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondAccessError(w, logger, "delete", id, err)
		return
	}

	logger.Info("bookmark deleted", "bookmark_id", id)
	httputil.RespondNoContent(w)
}

// respondAccessError answers a missing and a foreign bookmark the same way
func respondAccessError(w http.ResponseWriter, logger *logging.Logger, op string, id uuid.UUID, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, auth.ErrNotAuthorized) {
		logger.Warn(op+" bookmark denied", "bookmark_id", id, "error", err.Error())
		httputil.RespondErrorWithCode(w, auth.ErrNotAuthorized.Error(), httputil.CodeAccessDenied, http.StatusForbidden)
		return
	}
	logger.Error(op+" bookmark failed", "bookmark_id", id, "error", err.Error())
	httputil.RespondErrorWithCode(w, "failed to "+op+" bookmark", httputil.CodeInternalError, http.StatusInternalServerError)
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := authctx.UserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
	}
	return userID, ok
}

func bookmarkID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid bookmark id", httputil.CodeInvalidID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
