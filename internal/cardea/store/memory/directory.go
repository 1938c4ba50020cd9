package memory

import (
	"context"
	"sync"

	"github.com/cardea-project/cardea/internal/cardea/store"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]store.User
}

func NewUserStore(users ...store.User) *UserStore {
	m := make(map[string]store.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &UserStore{users: m}
}

func (s *UserStore) Get(_ context.Context, id string) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) SetFaceEnrolled(_ context.Context, id string, enrolled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.FaceEnrolled = enrolled
	s.users[id] = u
	return nil
}

type LocationStore struct {
	mu        sync.RWMutex
	locations map[string]store.Location
}

func NewLocationStore(locations ...store.Location) *LocationStore {
	m := make(map[string]store.Location, len(locations))
	for _, l := range locations {
		m[l.ID] = l
	}
	return &LocationStore{locations: m}
}

func (s *LocationStore) Get(_ context.Context, id string) (store.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return store.Location{}, store.ErrNotFound
	}
	return l, nil
}

// CategoryStore holds reference categories as name -> subcategory names.
type CategoryStore struct {
	mu         sync.RWMutex
	categories map[string]map[string]struct{}
}

func NewCategoryStore(categories map[string][]string) *CategoryStore {
	m := make(map[string]map[string]struct{}, len(categories))
	for name, subs := range categories {
		set := make(map[string]struct{}, len(subs))
		for _, s := range subs {
			set[s] = struct{}{}
		}
		m[name] = set
	}
	return &CategoryStore{categories: m}
}

func (s *CategoryStore) CategoryExists(_ context.Context, category, subcategory string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs, ok := s.categories[category]
	if !ok {
		return false, nil
	}
	if subcategory == "" {
		return true, nil
	}
	_, ok = subs[subcategory]
	return ok, nil
}
