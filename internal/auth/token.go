package auth

import (
	"fmt"
	"time"

	"github.com/redmonkez12/go-bookmark-api/internal/config"
)

// TokenClaims represents the claims carried by an access token
type TokenClaims struct {
	UserID    string    `json:"sub"` // UUID stored as string in token
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Clock returns the current time
type Clock func() time.Time

// TokenOption configures a token service
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	now Clock
}

// WithClock overrides the time source used for iat, exp and expiry checks
func WithClock(now Clock) TokenOption {
	return func(o *tokenOptions) {
		o.now = now
	}
}

func applyTokenOptions(opts []TokenOption) tokenOptions {
	o := tokenOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewTokenService builds the token service selected by cfg.TokenFormat
func NewTokenService(cfg config.AuthConfig, opts ...TokenOption) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatJWT:
		return NewJWTService(cfg.JWTSecret, opts...)
	case config.TokenFormatPaseto:
		return NewPasetoService(cfg.PasetoKey, opts...)
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
}
