package store

import (
	"context"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

// AccessRecord is one server-room visit lifecycle.
//
// ApprovedBy is set exactly once, by the Decide transition. EnteredAt and
// EntryPhoto are set together by the check-in transition and never
// overwritten; ExitedAt, Report and Outcome are set together at completion.
type AccessRecord struct {
	ID           string
	RequesterID  string
	LocationID   string
	Status       types.Status
	Category     string
	Subcategory  string
	Activities   []string
	Notes        string
	GroupMembers string

	RequestedAt time.Time
	EnteredAt   *time.Time
	ExitedAt    *time.Time

	ApprovedBy string // empty while Pending
	EntryPhoto string // artifact path, empty until checked in
	Report     string
	Outcome    types.Outcome
}

// AccessRequestStore persists access lifecycles. The MarkX methods are
// conditional updates: each runs as a single atomic read-modify-write and
// returns ErrStateConflict without touching the record if its status
// precondition does not hold at commit time.
type AccessRequestStore interface {
	Create(ctx context.Context, rec AccessRecord) error
	Get(ctx context.Context, id string) (AccessRecord, error)

	// ListByRequester returns the requester's lifecycles, newest first.
	ListByRequester(ctx context.Context, requesterID string) ([]AccessRecord, error)

	// ListPending returns Pending requests oldest first. A non-empty picID
	// restricts the result to locations whose PIC is that user; an empty
	// picID returns every pending request (superuser view).
	ListPending(ctx context.Context, picID string) ([]AccessRecord, error)

	// MarkDecided moves a Pending record to Approved or Denied and stamps
	// the deciding actor.
	MarkDecided(ctx context.Context, id string, status types.Status, approvedBy string, at time.Time) error

	// MarkCheckedIn moves an Approved record to Checked-In, recording the
	// verified entry photo and entry time together.
	MarkCheckedIn(ctx context.Context, id string, entryPhoto string, at time.Time) error

	// MarkCompleted moves a Checked-In record to Completed with the
	// activity report and outcome.
	MarkCompleted(ctx context.Context, id string, report string, outcome types.Outcome, at time.Time) error
}
