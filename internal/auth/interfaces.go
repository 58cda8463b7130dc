package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-bookmark-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) bool
}

// CredentialStore is the user persistence the auth service depends on.
// Create must return user.ErrDuplicateEmail when the email is taken and
// GetByEmail must return user.ErrNotFound for an unknown email.
type CredentialStore interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// SubjectStore resolves a token subject to a user. GetByID must return
// user.ErrNotFound when the user no longer exists.
type SubjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}
