package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/types"
	dbpkg "github.com/cardea-project/cardea/internal/db"
)

type FaceChangeStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewFaceChangeStore(db *sql.DB, writer *dbpkg.Worker) *FaceChangeStore {
	return &FaceChangeStore{db: db, writer: writer}
}

func (s *FaceChangeStore) Upsert(ctx context.Context, rec store.FaceChangeRecord) (store.FaceChangeRecord, error) {
	// One row per user: a repeat request resets the existing row to
	// Pending and keeps its id.
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO face_change_requests(change_id, user_id, status, requested_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  status = 'Pending',
  requested_at_ms = excluded.requested_at_ms,
  reviewed_by = NULL;
`, rec.ID, rec.UserID, string(types.FaceChangePending), rec.RequestedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.FaceChangeRecord{}, err
	}

	return s.getByUser(ctx, rec.UserID)
}

func (s *FaceChangeStore) Get(ctx context.Context, id string) (store.FaceChangeRecord, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
SELECT change_id, user_id, status, requested_at_ms, reviewed_by
FROM face_change_requests WHERE change_id = ?;`, id))
}

func (s *FaceChangeStore) getByUser(ctx context.Context, userID string) (store.FaceChangeRecord, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
SELECT change_id, user_id, status, requested_at_ms, reviewed_by
FROM face_change_requests WHERE user_id = ?;`, userID))
}

func (s *FaceChangeStore) ListPending(ctx context.Context) ([]store.FaceChangeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT change_id, user_id, status, requested_at_ms, reviewed_by
FROM face_change_requests
WHERE status = 'Pending'
ORDER BY requested_at_ms ASC;`)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	defer rows.Close()

	var out []store.FaceChangeRecord
	for rows.Next() {
		rec, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *FaceChangeStore) MarkReviewed(ctx context.Context, id string, status types.FaceChangeStatus, reviewedBy string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE face_change_requests
SET status = ?, reviewed_by = ?
WHERE change_id = ? AND status = 'Pending';`,
			string(status), reviewedBy, id)
		if err != nil {
			return fmt.Errorf("MarkReviewed: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 1 {
			return nil
		}

		var current string
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM face_change_requests WHERE change_id = ?;`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("re-read status: %w", err)
		}
		return store.ErrStateConflict
	})
}

func (s *FaceChangeStore) scanOne(row rowScanner) (store.FaceChangeRecord, error) {
	var (
		rec         store.FaceChangeRecord
		status      string
		requestedMs int64
		reviewedBy  sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.UserID, &status, &requestedMs, &reviewedBy)
	if err == sql.ErrNoRows {
		return store.FaceChangeRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.FaceChangeRecord{}, fmt.Errorf("scan face change: %w", err)
	}
	rec.Status = types.FaceChangeStatus(status)
	rec.RequestedAt = time.UnixMilli(requestedMs).UTC()
	if reviewedBy.Valid {
		rec.ReviewedBy = reviewedBy.String
	}
	return rec, nil
}
