package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is the persistence the profile service needs
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*User, error)
}

// Service handles profile reads and edits for the authenticated user
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetProfile returns the user identified by a validated token subject
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

// EditProfile updates the user's own email and names
func (s *Service) EditProfile(ctx context.Context, userID uuid.UUID, patch Patch) (*User, error) {
	if patch.IsEmpty() {
		return s.GetProfile(ctx, userID)
	}

	u, err := s.store.Update(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("edit profile: %w", err)
	}
	return u, nil
}
