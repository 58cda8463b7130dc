package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/go-bookmark-api/internal/logging"
	"github.com/redmonkez12/go-bookmark-api/internal/user"
)

// AccessToken is the signin result
type AccessToken struct {
	AccessToken string `json:"access_token"`
}

// Service handles authentication business logic
type Service struct {
	users               CredentialStore
	hasher              PasswordHasher
	tokens              TokenService
	logger              *logging.Logger
	accessTokenDuration time.Duration
}

func NewService(
	users CredentialStore,
	hasher PasswordHasher,
	tokens TokenService,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
) *Service {
	return &Service{
		users:               users,
		hasher:              hasher,
		tokens:              tokens,
		logger:              logger,
		accessTokenDuration: accessTokenDuration,
	}
}

// Signup hashes the password and creates the user. It does not issue a token.
func (s *Service) Signup(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, fmt.Errorf("%w: password must be between 1 and %d bytes", ErrInvalidInput, MaxPasswordLength)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	newUser.PasswordHash = ""
	s.logger.Debug("user signed up", "user_id", newUser.ID)

	return newUser, nil
}

// Signin verifies the credentials and returns an access token. An unknown
// email and a wrong password produce the same error.
func (s *Service) Signin(ctx context.Context, email, password string) (*AccessToken, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existingUser.ID, existingUser.Email, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AccessToken{AccessToken: token}, nil
}
