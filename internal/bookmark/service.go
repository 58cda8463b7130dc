package bookmark

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-bookmark-api/internal/auth"
)

// Store is the persistence the bookmark service needs
type Store interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Bookmark, error)
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*Bookmark, error)
	Create(ctx context.Context, ownerID uuid.UUID, draft Draft) (*Bookmark, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

// Service handles bookmark business logic. Every operation acts on behalf
// of the requester identified by a validated token.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, requesterID uuid.UUID) ([]Bookmark, error) {
	bookmarks, err := s.store.ListByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Get returns ErrNotFound both for missing bookmarks and for bookmarks
// owned by someone else.
func (s *Service) Get(ctx context.Context, requesterID, id uuid.UUID) (*Bookmark, error) {
	b, err := s.store.GetForOwner(ctx, id, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, draft Draft) (*Bookmark, error) {
	b, err := s.store.Create(ctx, requesterID, draft)
	if err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}
	return b, nil
}

// Edit applies patch to a bookmark the requester owns. The ownership check
// and the update run against the same locked row.
func (s *Service) Edit(ctx context.Context, requesterID, id uuid.UUID, patch Patch) (*Bookmark, error) {
	var updated *Bookmark

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		current, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(current.UserID, requesterID); err != nil {
			return err
		}

		if patch.IsEmpty() {
			updated = current
			return nil
		}

		updated, err = tx.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("edit bookmark: %w", err)
	}

	return updated, nil
}

// Delete removes a bookmark the requester owns
func (s *Service) Delete(ctx context.Context, requesterID, id uuid.UUID) error {
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		current, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(current.UserID, requesterID); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}

	return nil
}
