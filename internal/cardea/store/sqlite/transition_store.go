package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	dbpkg "github.com/cardea-project/cardea/internal/db"
)

type TransitionStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTransitionStore(db *sql.DB, writer *dbpkg.Worker) *TransitionStore {
	return &TransitionStore{db: db, writer: writer}
}

func (s *TransitionStore) RecordTransition(ctx context.Context, rec store.TransitionRecord) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO transitions(
  request_id, actor_id, from_status, to_status, reason, occurred_at_ms
) VALUES (?, ?, ?, ?, ?, ?);
`,
			rec.RequestID, rec.ActorID, string(rec.FromStatus),
			string(rec.ToStatus), rec.Reason, rec.OccurredAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("RecordTransition insert: %w", err)
		}
		return nil
	})
}
