package store

import (
	"context"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

// TransitionRecord captures a single lifecycle transition for the audit
// trail. FromStatus is empty for request creation.
type TransitionRecord struct {
	RequestID  string
	ActorID    string
	FromStatus types.Status
	ToStatus   types.Status
	Reason     string
	OccurredAt time.Time
}

// TransitionStore persists lifecycle transitions as an append-only audit log.
type TransitionStore interface {
	RecordTransition(ctx context.Context, rec TransitionRecord) error
}
