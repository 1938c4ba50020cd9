package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/types"
	dbpkg "github.com/cardea-project/cardea/internal/db"
)

type AccessRequestStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessRequestStore(db *sql.DB, writer *dbpkg.Worker) *AccessRequestStore {
	return &AccessRequestStore{db: db, writer: writer}
}

const accessColumns = `
request_id, requester_id, location_id, status, category, subcategory,
activities_json, notes, group_members, requested_at_ms, entered_at_ms,
exited_at_ms, approved_by, entry_photo, report, outcome`

func (s *AccessRequestStore) Create(ctx context.Context, rec store.AccessRecord) error {
	activities, err := json.Marshal(rec.Activities)
	if err != nil {
		return fmt.Errorf("Create marshal activities: %w", err)
	}
	if rec.Activities == nil {
		activities = []byte("[]")
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_requests(
  request_id, requester_id, location_id, status, category, subcategory,
  activities_json, notes, group_members, requested_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.RequesterID, rec.LocationID, string(rec.Status),
			rec.Category, rec.Subcategory, string(activities), rec.Notes,
			rec.GroupMembers, rec.RequestedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Create insert: %w", err)
		}
		return nil
	})
}

func (s *AccessRequestStore) Get(ctx context.Context, id string) (store.AccessRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accessColumns+` FROM access_requests WHERE request_id = ?;`, id)
	rec, err := scanAccessRecord(row)
	if err == sql.ErrNoRows {
		return store.AccessRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessRecord{}, fmt.Errorf("Get: %w", err)
	}
	return rec, nil
}

func (s *AccessRequestStore) ListByRequester(ctx context.Context, requesterID string) ([]store.AccessRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+accessColumns+`
FROM access_requests
WHERE requester_id = ?
ORDER BY requested_at_ms DESC;`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("ListByRequester: %w", err)
	}
	defer rows.Close()
	return collectAccessRecords(rows)
}

func (s *AccessRequestStore) ListPending(ctx context.Context, picID string) ([]store.AccessRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if picID == "" {
		rows, err = s.db.QueryContext(ctx, `
SELECT `+accessColumns+`
FROM access_requests
WHERE status = 'Pending'
ORDER BY requested_at_ms ASC;`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
SELECT `+qualifiedAccessColumns()+`
FROM access_requests r
JOIN locations l ON l.location_id = r.location_id
WHERE r.status = 'Pending' AND l.pic_user_id = ?
ORDER BY r.requested_at_ms ASC;`, picID)
	}
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	defer rows.Close()
	return collectAccessRecords(rows)
}

func (s *AccessRequestStore) MarkDecided(ctx context.Context, id string, status types.Status, approvedBy string, at time.Time) error {
	return s.conditionalUpdate(ctx, id, `
UPDATE access_requests
SET status = ?, approved_by = ?
WHERE request_id = ? AND status = ?;`,
		string(status), approvedBy, id, string(types.StatusPending))
}

func (s *AccessRequestStore) MarkCheckedIn(ctx context.Context, id string, entryPhoto string, at time.Time) error {
	return s.conditionalUpdate(ctx, id, `
UPDATE access_requests
SET status = ?, entry_photo = ?, entered_at_ms = ?
WHERE request_id = ? AND status = ?;`,
		string(types.StatusCheckedIn), entryPhoto, at.UTC().UnixMilli(),
		id, string(types.StatusApproved))
}

func (s *AccessRequestStore) MarkCompleted(ctx context.Context, id string, report string, outcome types.Outcome, at time.Time) error {
	return s.conditionalUpdate(ctx, id, `
UPDATE access_requests
SET status = ?, report = ?, outcome = ?, exited_at_ms = ?
WHERE request_id = ? AND status = ?;`,
		string(types.StatusCompleted), report, string(outcome),
		at.UTC().UnixMilli(), id, string(types.StatusCheckedIn))
}

// conditionalUpdate runs an UPDATE whose WHERE clause carries the status
// precondition. Zero rows affected means either the record is missing or
// the precondition failed; the follow-up SELECT inside the same
// transaction tells the two apart.
func (s *AccessRequestStore) conditionalUpdate(ctx context.Context, id string, query string, args ...any) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("conditional update: %w", err)
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
			`SELECT status FROM access_requests WHERE request_id = ?;`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("re-read status: %w", err)
		}
		return store.ErrStateConflict
	})
}

func qualifiedAccessColumns() string {
	return `
r.request_id, r.requester_id, r.location_id, r.status, r.category,
r.subcategory, r.activities_json, r.notes, r.group_members,
r.requested_at_ms, r.entered_at_ms, r.exited_at_ms, r.approved_by,
r.entry_photo, r.report, r.outcome`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccessRecord(row rowScanner) (store.AccessRecord, error) {
	var (
		rec            store.AccessRecord
		status         string
		activitiesJSON string
		requestedMs    int64
		enteredMs      sql.NullInt64
		exitedMs       sql.NullInt64
		approvedBy     sql.NullString
		outcome        string
	)

	if err := row.Scan(
		&rec.ID, &rec.RequesterID, &rec.LocationID, &status, &rec.Category,
		&rec.Subcategory, &activitiesJSON, &rec.Notes, &rec.GroupMembers,
		&requestedMs, &enteredMs, &exitedMs, &approvedBy, &rec.EntryPhoto,
		&rec.Report, &outcome,
	); err != nil {
		return store.AccessRecord{}, err
	}

	rec.Status = types.Status(status)
	rec.Outcome = types.Outcome(outcome)
	rec.RequestedAt = time.UnixMilli(requestedMs).UTC()
	if enteredMs.Valid {
		t := time.UnixMilli(enteredMs.Int64).UTC()
		rec.EnteredAt = &t
	}
	if exitedMs.Valid {
		t := time.UnixMilli(exitedMs.Int64).UTC()
		rec.ExitedAt = &t
	}
	if approvedBy.Valid {
		rec.ApprovedBy = approvedBy.String
	}
	if activitiesJSON != "" {
		if err := json.Unmarshal([]byte(activitiesJSON), &rec.Activities); err != nil {
			return store.AccessRecord{}, fmt.Errorf("unmarshal activities: %w", err)
		}
	}
	return rec, nil
}

func collectAccessRecords(rows *sql.Rows) ([]store.AccessRecord, error) {
	var out []store.AccessRecord
	for rows.Next() {
		rec, err := scanAccessRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
