package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/types"
)

type FaceChangeStore struct {
	mu     sync.Mutex
	byID   map[string]store.FaceChangeRecord
	byUser map[string]string // user id -> record id
}

func NewFaceChangeStore() *FaceChangeStore {
	return &FaceChangeStore{
		byID:   make(map[string]store.FaceChangeRecord),
		byUser: make(map[string]string),
	}
}

func (s *FaceChangeStore) Upsert(_ context.Context, rec store.FaceChangeRecord) (store.FaceChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byUser[rec.UserID]; ok {
		existing := s.byID[existingID]
		existing.Status = types.FaceChangePending
		existing.RequestedAt = rec.RequestedAt
		existing.ReviewedBy = ""
		s.byID[existingID] = existing
		return existing, nil
	}

	s.byID[rec.ID] = rec
	s.byUser[rec.UserID] = rec.ID
	return rec, nil
}

func (s *FaceChangeStore) Get(_ context.Context, id string) (store.FaceChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return store.FaceChangeRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *FaceChangeStore) ListPending(_ context.Context) ([]store.FaceChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.FaceChangeRecord
	for _, rec := range s.byID {
		if rec.Status == types.FaceChangePending {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *FaceChangeStore) MarkReviewed(_ context.Context, id string, status types.FaceChangeStatus, reviewedBy string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status != types.FaceChangePending {
		return store.ErrStateConflict
	}
	rec.Status = status
	rec.ReviewedBy = reviewedBy
	s.byID[id] = rec
	return nil
}
