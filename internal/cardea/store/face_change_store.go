package store

import (
	"context"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

// FaceChangeRecord is a user's pending (or decided) request to replace
// their enrolled verification photos. Each user has at most one record:
// re-requesting resets the existing row to Pending rather than creating
// another.
type FaceChangeRecord struct {
	ID          string
	UserID      string
	Status      types.FaceChangeStatus
	RequestedAt time.Time
	ReviewedBy  string // empty while Pending
}

type FaceChangeStore interface {
	// Upsert creates the user's change request, or resets an existing one
	// to Pending with a fresh request time. The record id is stable across
	// resets of the same user's request.
	Upsert(ctx context.Context, rec FaceChangeRecord) (FaceChangeRecord, error)

	Get(ctx context.Context, id string) (FaceChangeRecord, error)

	// ListPending returns all Pending change requests, oldest first.
	ListPending(ctx context.Context) ([]FaceChangeRecord, error)

	// MarkReviewed moves a Pending record to Approved or Denied and stamps
	// the reviewer. Returns ErrStateConflict if the record is not Pending.
	MarkReviewed(ctx context.Context, id string, status types.FaceChangeStatus, reviewedBy string, at time.Time) error
}
