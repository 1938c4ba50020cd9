package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/photostore"
)

// StagingSweeper reclaims orphaned check-in photos: files written during a
// CheckIn whose record commit never happened (crash, lost race with a
// concurrent deny). It runs as a background goroutine and is safe to stop
// via its context or the Stop method.
//
// A retention of 0 disables sweeping entirely.
type StagingSweeper struct {
	photos    *photostore.Store
	requests  store.AccessRequestStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// SweeperConfig holds the parameters for NewStagingSweeper.
type SweeperConfig struct {
	// RetentionMinutes is how old an unreferenced entry photo must be
	// before it is deleted. 0 disables the sweeper. Keep it comfortably
	// above the verification timeout so an in-flight check-in's photo is
	// never swept.
	RetentionMinutes int

	// IntervalMinutes is how often the sweeper runs. Defaults to 30.
	IntervalMinutes int
}

// NewStagingSweeper creates a sweeper but does not start it.
// Call Start to begin the background loop.
func NewStagingSweeper(photos *photostore.Store, requests store.AccessRequestStore, cfg SweeperConfig, logger *log.Logger) *StagingSweeper {
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	return &StagingSweeper{
		photos:    photos,
		requests:  requests,
		retention: time.Duration(cfg.RetentionMinutes) * time.Minute,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background loop. It runs an immediate sweep on startup,
// then repeats on the configured interval. The loop exits when ctx is
// cancelled or Stop is called.
func (s *StagingSweeper) Start(ctx context.Context) {
	if s.retention <= 0 {
		s.logger.Printf("staging sweeper disabled (retention=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Printf("staging sweeper started (retention=%s, interval=%s)",
		s.retention, s.interval)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *StagingSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *StagingSweeper) loop(ctx context.Context) {
	defer close(s.done)

	// Clean up any backlog from a previous crash right away.
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes entry photos older than the retention whose request record
// does not reference them. A photo referenced by a committed record is
// live and untouchable regardless of age.
func (s *StagingSweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)

	photos, err := s.photos.ListEntryPhotos(cutoff)
	if err != nil {
		s.logger.Printf("staging sweep list error: %v", err)
		return
	}

	var deleted int
	for _, p := range photos {
		rec, err := s.requests.Get(ctx, p.RequestID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Request row never existed or was purged; the file is orphaned.
		case err != nil:
			s.logger.Printf("staging sweep lookup %s: %v", p.RequestID, err)
			continue
		case rec.EntryPhoto == p.Path:
			continue
		}

		if err := s.photos.RemoveEntryPhoto(p.Path); err != nil {
			s.logger.Printf("staging sweep remove %s: %v", p.Path, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Printf("staging sweep: deleted %d orphaned photo(s) older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
