// Package photostore manages the on-disk photo areas Cardea shares with
// the biometric verification service:
//
//	<root>/face_db/<userID>/          live enrollment sets (read by the service)
//	<root>/face_db_pending/<userID>/  staged sets awaiting review
//	<root>/access_photos/check_in/    check-in entry photos
//
// Entry photos follow a two-phase discipline: the file is written first,
// then the access record is committed referencing it. A file whose record
// never committed is an orphan and is reclaimed by the staging sweeper.
package photostore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	s := &Store{root: root}
	for _, dir := range []string{s.liveRoot(), s.stagedRoot(), s.entryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("photostore mkdir %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *Store) liveRoot() string   { return filepath.Join(s.root, "face_db") }
func (s *Store) stagedRoot() string { return filepath.Join(s.root, "face_db_pending") }
func (s *Store) entryDir() string   { return filepath.Join(s.root, "access_photos", "check_in") }

func (s *Store) liveDir(userID string) string   { return filepath.Join(s.liveRoot(), userID) }
func (s *Store) stagedDir(userID string) string { return filepath.Join(s.stagedRoot(), userID) }

// StageFaceSet replaces the user's staged set with the given photos. The
// previous staged set, if any, is discarded first so a partial earlier
// upload can never mix into the new one.
func (s *Store) StageFaceSet(userID string, photos types.PhotoSet) error {
	if !photos.Complete() {
		return fmt.Errorf("stage face set: all three angles are required")
	}

	dir := s.stagedDir(userID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("stage face set: clear previous: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("stage face set: mkdir: %w", err)
	}

	for _, label := range types.PhotoLabels {
		path := filepath.Join(dir, string(label)+".png")
		if err := os.WriteFile(path, photos[label], 0o644); err != nil {
			return fmt.Errorf("stage face set: write %s: %w", label, err)
		}
	}
	return nil
}

// DiscardStagedFaceSet removes the user's staged set. Removing a set that
// does not exist is not an error.
func (s *Store) DiscardStagedFaceSet(userID string) error {
	if err := os.RemoveAll(s.stagedDir(userID)); err != nil {
		return fmt.Errorf("discard staged set: %w", err)
	}
	return nil
}

// PromoteFaceSet swaps the user's staged set in as the live enrollment set.
// The old live set is renamed aside before the staged set moves into place,
// so the live path always points at either the complete old set or the
// complete new one; the aside copy is deleted last.
func (s *Store) PromoteFaceSet(userID string) error {
	staged := s.stagedDir(userID)
	live := s.liveDir(userID)

	if _, err := os.Stat(staged); err != nil {
		return fmt.Errorf("promote face set: no staged set for user %s: %w", userID, err)
	}

	aside := live + ".old"
	hadLive := true
	if err := os.Rename(live, aside); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("promote face set: move old live aside: %w", err)
		}
		hadLive = false
	}

	if err := os.Rename(staged, live); err != nil {
		if hadLive {
			// Put the old set back so recognition keeps working.
			_ = os.Rename(aside, live)
		}
		return fmt.Errorf("promote face set: install staged set: %w", err)
	}

	if hadLive {
		if err := os.RemoveAll(aside); err != nil {
			return fmt.Errorf("promote face set: remove old set: %w", err)
		}
	}
	return nil
}

// HasStagedFaceSet reports whether a staged set exists for the user.
func (s *Store) HasStagedFaceSet(userID string) bool {
	_, err := os.Stat(s.stagedDir(userID))
	return err == nil
}

// LiveFaceSet reads the user's live enrollment set. Returns an empty set
// if the user has no live enrollment.
func (s *Store) LiveFaceSet(userID string) (types.PhotoSet, error) {
	return readSet(s.liveDir(userID))
}

// StagedFaceSet reads the user's staged set, empty if none.
func (s *Store) StagedFaceSet(userID string) (types.PhotoSet, error) {
	return readSet(s.stagedDir(userID))
}

func readSet(dir string) (types.PhotoSet, error) {
	set := types.PhotoSet{}
	for _, label := range types.PhotoLabels {
		b, err := os.ReadFile(filepath.Join(dir, string(label)+".png"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s photo: %w", label, err)
		}
		set[label] = b
	}
	return set, nil
}

// SaveEntryPhoto writes a verified check-in photo and returns its path.
// The request id is embedded in the filename so the sweeper can tell
// whether the owning record ever committed.
func (s *Store) SaveEntryPhoto(requestID string, image []byte) (string, error) {
	name := fmt.Sprintf("%s_%s.png", requestID, uuid.NewString())
	path := filepath.Join(s.entryDir(), name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("save entry photo: %w", err)
	}
	return path, nil
}

// EntryPhoto describes one stored check-in photo.
type EntryPhoto struct {
	Path      string
	RequestID string
	ModTime   time.Time
}

// ListEntryPhotos returns entry photos last modified before cutoff.
func (s *Store) ListEntryPhotos(cutoff time.Time) ([]EntryPhoto, error) {
	entries, err := os.ReadDir(s.entryDir())
	if err != nil {
		return nil, fmt.Errorf("list entry photos: %w", err)
	}

	var out []EntryPhoto
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat entry photo %s: %w", e.Name(), err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		reqID, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		out = append(out, EntryPhoto{
			Path:      filepath.Join(s.entryDir(), e.Name()),
			RequestID: reqID,
			ModTime:   info.ModTime(),
		})
	}
	return out, nil
}

// RemoveEntryPhoto deletes one entry photo file.
func (s *Store) RemoveEntryPhoto(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove entry photo: %w", err)
	}
	return nil
}
