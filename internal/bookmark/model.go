package bookmark

import (
	"time"

	"github.com/google/uuid"
)

type Bookmark struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Draft holds the fields of a bookmark being created
type Draft struct {
	Title       string
	Link        string
	Description *string
}

// Patch holds the fields to change. Nil fields are left as is and an empty
// Description clears it.
type Patch struct {
	Title       *string
	Link        *string
	Description *string
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Link == nil && p.Description == nil
}

// ClearsDescription reports whether the patch removes the description
func (p Patch) ClearsDescription() bool {
	return p.Description != nil && *p.Description == ""
}
