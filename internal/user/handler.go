package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-bookmark-api/internal/authctx"
	"github.com/redmonkez12/go-bookmark-api/internal/httputil"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
)

// ProfileService is implemented by Service
type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*User, error)
	EditProfile(ctx context.Context, userID uuid.UUID, patch Patch) (*User, error)
}

// Handler contains HTTP handlers for the /users endpoints
type Handler struct {
	service ProfileService
}

func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// EditUserRequest represents the profile edit request body
type EditUserRequest struct {
	Email     *string `json:"email" validate:"omitnil,email"`
	FirstName *string `json:"firstName" validate:"omitnil,max=100"`
	LastName  *string `json:"lastName" validate:"omitnil,max=100"`
}

// GetProfile returns the authenticated user
// @Summary      Get current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Response
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /users/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := authctx.UserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// token is valid but its subject is gone
			logger.Warn("profile requested for unknown user", "user_id", userID)
			httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}
		logger.Error("get profile failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, u.ToResponse(), http.StatusOK)
}

// EditUser updates the authenticated user's profile
// @Summary      Edit current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body EditUserRequest true "Fields to change"
// @Success      200 {object} Response
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse "Email already exists"
// @Router       /users [patch]
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := authctx.UserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req EditUserRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("invalid edit user request", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.ErrorCode(err), http.StatusBadRequest)
		return
	}

	u, err := h.service.EditProfile(r.Context(), userID, Patch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			httputil.RespondErrorWithCode(w, "Email already exists", httputil.CodeEmailAlreadyExists, http.StatusForbidden)
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
		default:
			logger.Error("edit user failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to edit user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user profile updated", "user_id", userID)
	httputil.RespondJSON(w, u.ToResponse(), http.StatusOK)
}
