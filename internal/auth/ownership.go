package auth

import "github.com/google/uuid"

// Authorize decides whether requesterID may mutate a resource owned by
// ownerID. Callers must establish that the resource exists first.
func Authorize(ownerID, requesterID uuid.UUID) error {
	if ownerID == uuid.Nil || ownerID != requesterID {
		return ErrNotAuthorized
	}
	return nil
}
