package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/redmonkez12/go-bookmark-api/internal/httputil"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
	"github.com/redmonkez12/go-bookmark-api/internal/user"
)

// Authenticator is implemented by Service
type Authenticator interface {
	Signup(ctx context.Context, email, password string) (*user.User, error)
	Signin(ctx context.Context, email, password string) (*AccessToken, error)
}

// RateLimiter reports whether a request for purpose from identifier may proceed
type RateLimiter interface {
	Allow(ctx context.Context, purpose, identifier string) (bool, error)
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service        Authenticator
	rateLimiter    RateLimiter
	trustedProxies []netip.Prefix
}

// NewHandler creates the auth handler. Forwarding headers are only honoured
// for requests whose direct peer falls in trustedProxies.
func NewHandler(service Authenticator, rateLimiter RateLimiter, trustedProxies ...netip.Prefix) *Handler {
	return &Handler{
		service:        service,
		rateLimiter:    rateLimiter,
		trustedProxies: trustedProxies,
	}
}

// CredentialsRequest is the signup and signin request body
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	Message string        `json:"message"`
	User    user.Response `json:"user"`
}

// Signup handles user registration
// @Summary      Sign up
// @Description  Create a new user account with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Signup credentials"
// @Success      201 {object} SignupResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      403 {object} httputil.ErrorResponse "Email already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, logger, "signup") {
		return
	}

	var req CredentialsRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("invalid signup request", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.ErrorCode(err), http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "Email already exists", httputil.CodeEmailAlreadyExists, http.StatusForbidden)
		case errors.Is(err, ErrInvalidInput):
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidPassword, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)

	httputil.RespondJSON(w, SignupResponse{
		Message: "Sign up successful",
		User:    newUser.ToResponse(),
	}, http.StatusCreated)
}

// Signin handles user login
// @Summary      Sign in
// @Description  Authenticate and receive a bearer access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Signin credentials"
// @Success      200 {object} AccessToken
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      403 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signin [post]
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, logger, "signin") {
		return
	}

	var req CredentialsRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		logger.Warn("invalid signin request", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.ErrorCode(err), http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("signin failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusForbidden)
			return
		}
		logger.Error("signin failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to sign in", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user signed in")
	httputil.RespondJSON(w, token, http.StatusOK)
}

// allow applies the per-IP rate limit. Limiter failures are logged and the
// request is let through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, logger *logging.Logger, purpose string) bool {
	ip := h.clientIP(r)

	ok, err := h.rateLimiter.Allow(r.Context(), purpose, ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return true
	}
	if !ok {
		logger.Warn("IP rate limit exceeded", "purpose", purpose, "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}
	return true
}

// clientIP returns the address the rate limit is keyed on. X-Forwarded-For
// is walked from the right past trusted hops, so a client cannot choose its
// own key by prepending addresses.
func (h *Handler) clientIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)
	addr, err := netip.ParseAddr(peer)
	if err != nil || !h.isTrustedProxy(addr) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return peer
			}
			if !h.isTrustedProxy(hop) {
				return hop.Unmap().String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}

	return peer
}

func (h *Handler) isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range h.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// remoteIP strips the port from a RemoteAddr of the form "IP:port"
func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
