package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/types"
)

// AccessRequestStore is an in-memory implementation intended for tests and
// dev environments. Conditional updates hold the lock for the whole
// read-modify-write, matching the transactional guarantee of the sqlite
// implementation.
type AccessRequestStore struct {
	mu        sync.Mutex
	records   map[string]store.AccessRecord
	locations store.LocationStore // for ListPending PIC scoping
}

func NewAccessRequestStore(locations store.LocationStore) *AccessRequestStore {
	return &AccessRequestStore{
		records:   make(map[string]store.AccessRecord),
		locations: locations,
	}
}

func (s *AccessRequestStore) Create(_ context.Context, rec store.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *AccessRequestStore) Get(_ context.Context, id string) (store.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.AccessRecord{}, store.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *AccessRequestStore) ListByRequester(_ context.Context, requesterID string) ([]store.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.AccessRecord
	for _, rec := range s.records {
		if rec.RequesterID == requesterID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (s *AccessRequestStore) ListPending(ctx context.Context, picID string) ([]store.AccessRecord, error) {
	s.mu.Lock()
	recs := make([]store.AccessRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Status == types.StatusPending {
			recs = append(recs, cloneRecord(rec))
		}
	}
	s.mu.Unlock()

	var out []store.AccessRecord
	for _, rec := range recs {
		if picID != "" {
			loc, err := s.locations.Get(ctx, rec.LocationID)
			if err != nil {
				return nil, err
			}
			if loc.PICUserID != picID {
				continue
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *AccessRequestStore) MarkDecided(_ context.Context, id string, status types.Status, approvedBy string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status != types.StatusPending {
		return store.ErrStateConflict
	}
	rec.Status = status
	rec.ApprovedBy = approvedBy
	s.records[id] = rec
	return nil
}

func (s *AccessRequestStore) MarkCheckedIn(_ context.Context, id string, entryPhoto string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status != types.StatusApproved {
		return store.ErrStateConflict
	}
	t := at.UTC()
	rec.Status = types.StatusCheckedIn
	rec.EnteredAt = &t
	rec.EntryPhoto = entryPhoto
	s.records[id] = rec
	return nil
}

func (s *AccessRequestStore) MarkCompleted(_ context.Context, id string, report string, outcome types.Outcome, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status != types.StatusCheckedIn {
		return store.ErrStateConflict
	}
	t := at.UTC()
	rec.Status = types.StatusCompleted
	rec.ExitedAt = &t
	rec.Report = report
	rec.Outcome = outcome
	s.records[id] = rec
	return nil
}

func cloneRecord(rec store.AccessRecord) store.AccessRecord {
	out := rec
	if rec.Activities != nil {
		out.Activities = append([]string(nil), rec.Activities...)
	}
	if rec.EnteredAt != nil {
		t := *rec.EnteredAt
		out.EnteredAt = &t
	}
	if rec.ExitedAt != nil {
		t := *rec.ExitedAt
		out.ExitedAt = &t
	}
	return out
}
