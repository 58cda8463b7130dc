package bookmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-bookmark-api/internal/database"
)

var ErrNotFound = errors.New("bookmark not found")

// TxStore is the set of operations available inside a transaction
type TxStore interface {
	LockByID(ctx context.Context, id uuid.UUID) (*Bookmark, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Bookmark, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository handles bookmark data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// ListByOwner returns the owner's bookmarks, oldest first. The result is
// never nil.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Bookmark, error) {
	var rows []database.Bookmark
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", ownerID).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	bookmarks := make([]Bookmark, 0, len(rows))
	for i := range rows {
		bookmarks = append(bookmarks, *mapDBBookmarkToModel(&rows[i]))
	}
	return bookmarks, nil
}

// GetForOwner retrieves a bookmark by ID, scoped to its owner
func (r *Repository) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*Bookmark, error) {
	row := new(database.Bookmark)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("user_id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	return mapDBBookmarkToModel(row), nil
}

// Create inserts a bookmark owned by ownerID
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, draft Draft) (*Bookmark, error) {
	row := &database.Bookmark{
		UserID:      ownerID,
		Title:       draft.Title,
		Link:        draft.Link,
		Description: draft.Description,
	}

	_, err := r.db.NewInsert().
		Model(row).
		ExcludeColumn("id", "created_at", "updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create bookmark: %w", err)
	}

	return mapDBBookmarkToModel(row), nil
}

// RunInTx runs fn in a single transaction. The transaction is rolled back
// if fn returns an error.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx bun.Tx
}

// LockByID reads the row and holds a row lock until the transaction ends
func (r *txRepository) LockByID(ctx context.Context, id uuid.UUID) (*Bookmark, error) {
	row := new(database.Bookmark)
	err := r.tx.NewSelect().
		Model(row).
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock bookmark: %w", err)
	}

	return mapDBBookmarkToModel(row), nil
}

func (r *txRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Bookmark, error) {
	row := new(database.Bookmark)
	q := r.tx.NewUpdate().
		Model(row).
		Set("updated_at = NOW()")

	if patch.Title != nil {
		q = q.Set("title = ?", *patch.Title)
	}
	if patch.Link != nil {
		q = q.Set("link = ?", *patch.Link)
	}
	switch {
	case patch.ClearsDescription():
		q = q.Set("description = NULL")
	case patch.Description != nil:
		q = q.Set("description = ?", *patch.Description)
	}

	_, err := q.
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update bookmark: %w", err)
	}

	return mapDBBookmarkToModel(row), nil
}

func (r *txRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.tx.NewDelete().
		Model((*database.Bookmark)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBBookmarkToModel(row *database.Bookmark) *Bookmark {
	return &Bookmark{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Link:        row.Link,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
