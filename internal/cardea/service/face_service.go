package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/types"
	"github.com/cardea-project/cardea/internal/faceclient"
)

// FacePhotoStore is the staged/live photo area the face workflows manage.
type FacePhotoStore interface {
	StageFaceSet(userID string, photos types.PhotoSet) error
	DiscardStagedFaceSet(userID string) error
	PromoteFaceSet(userID string) error
	HasStagedFaceSet(userID string) bool
}

// FaceService handles first-time enrollment and the approval workflow that
// gates replacing an enrolled photo set. Re-enrollment requires staff
// sign-off so a user cannot unilaterally swap their verification identity.
type FaceService struct {
	users    store.UserStore
	changes  store.FaceChangeStore
	photos   FacePhotoStore
	verifier Verifier
	logger   *log.Logger
	now      func() time.Time
}

type FaceServiceDeps struct {
	Users    store.UserStore
	Changes  store.FaceChangeStore
	Photos   FacePhotoStore
	Verifier Verifier
	Logger   *log.Logger
}

func NewFaceService(d FaceServiceDeps) *FaceService {
	return &FaceService{
		users:    d.Users,
		changes:  d.Changes,
		photos:   d.Photos,
		verifier: d.Verifier,
		logger:   d.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnrollFace performs first-time enrollment: all three angles go straight
// to the verification service, which validates that each contains a
// detectable face. Any rejection aborts with the service's reason so the
// user knows which photo to retake.
func (s *FaceService) EnrollFace(ctx context.Context, actorID string, photos types.PhotoSet) error {
	if !photos.Complete() {
		return validationf("all three photos (front, left, right) are required")
	}

	actor, err := s.faceActor(ctx, actorID)
	if err != nil {
		return err
	}

	for _, label := range types.PhotoLabels {
		if err := s.verifier.Enroll(ctx, actor.ID, label, photos[label]); err != nil {
			return mapEnrollErr(err)
		}
	}

	if err := s.users.SetFaceEnrolled(ctx, actor.ID, true); err != nil {
		return fmt.Errorf("mark enrolled: %w", err)
	}
	return nil
}

// RequestChange stages a replacement photo set and opens (or resets) the
// user's change request. Calling it again while Pending simply replaces
// the staged photos.
func (s *FaceService) RequestChange(ctx context.Context, actorID string, photos types.PhotoSet) (store.FaceChangeRecord, error) {
	if !photos.Complete() {
		return store.FaceChangeRecord{}, validationf("all three photos (front, left, right) are required")
	}

	actor, err := s.faceActor(ctx, actorID)
	if err != nil {
		return store.FaceChangeRecord{}, err
	}

	if err := s.photos.StageFaceSet(actor.ID, photos); err != nil {
		return store.FaceChangeRecord{}, fmt.Errorf("stage photos: %w", err)
	}

	rec, err := s.changes.Upsert(ctx, store.FaceChangeRecord{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		Status:      types.FaceChangePending,
		RequestedAt: s.now(),
	})
	if err != nil {
		return store.FaceChangeRecord{}, fmt.Errorf("record change request: %w", err)
	}
	return rec, nil
}

// ApproveChange promotes the staged set to the live enrollment. Marking
// the request reviewed is the serialization point: of two concurrent
// reviewers only one passes the Pending precondition, so only one swap
// runs. The swap itself is rename-based, so a concurrent recognize sees
// the full old set or the full new set.
func (s *FaceService) ApproveChange(ctx context.Context, actorID, changeID string) (store.FaceChangeRecord, error) {
	actor, err := s.faceActor(ctx, actorID)
	if err != nil {
		return store.FaceChangeRecord{}, err
	}
	if !CanReviewFaceChange(actor) {
		return store.FaceChangeRecord{}, authorizationf("staff only")
	}

	rec, err := s.getChange(ctx, changeID)
	if err != nil {
		return store.FaceChangeRecord{}, err
	}
	if rec.Status != types.FaceChangePending {
		return store.FaceChangeRecord{}, fmt.Errorf("%w: change request is %s, not Pending", ErrInvalidState, rec.Status)
	}
	if !s.photos.HasStagedFaceSet(rec.UserID) {
		return store.FaceChangeRecord{}, validationf("no staged photos for user %s", rec.UserID)
	}

	if err := s.changes.MarkReviewed(ctx, changeID, types.FaceChangeApproved, actor.ID, s.now()); err != nil {
		return store.FaceChangeRecord{}, s.mapChangeStoreErr(err)
	}

	if err := s.photos.PromoteFaceSet(rec.UserID); err != nil {
		// The request row says approved but the swap failed; the old live
		// set is still intact. Surface loudly so an operator retries.
		s.logf("face set promotion failed for user %s after approval of %s: %v", rec.UserID, changeID, err)
		return store.FaceChangeRecord{}, fmt.Errorf("promote face set: %w", err)
	}

	if err := s.users.SetFaceEnrolled(ctx, rec.UserID, true); err != nil {
		return store.FaceChangeRecord{}, fmt.Errorf("mark enrolled: %w", err)
	}

	return s.getChange(ctx, changeID)
}

// DenyChange discards the staged set and leaves the live enrollment
// untouched.
func (s *FaceService) DenyChange(ctx context.Context, actorID, changeID string) (store.FaceChangeRecord, error) {
	actor, err := s.faceActor(ctx, actorID)
	if err != nil {
		return store.FaceChangeRecord{}, err
	}
	if !CanReviewFaceChange(actor) {
		return store.FaceChangeRecord{}, authorizationf("staff only")
	}

	rec, err := s.getChange(ctx, changeID)
	if err != nil {
		return store.FaceChangeRecord{}, err
	}
	if rec.Status != types.FaceChangePending {
		return store.FaceChangeRecord{}, fmt.Errorf("%w: change request is %s, not Pending", ErrInvalidState, rec.Status)
	}

	if err := s.changes.MarkReviewed(ctx, changeID, types.FaceChangeDenied, actor.ID, s.now()); err != nil {
		return store.FaceChangeRecord{}, s.mapChangeStoreErr(err)
	}

	if err := s.photos.DiscardStagedFaceSet(rec.UserID); err != nil {
		s.logf("discard staged set failed for user %s: %v", rec.UserID, err)
	}

	return s.getChange(ctx, changeID)
}

// PendingChanges lists change requests awaiting review. Staff only.
func (s *FaceService) PendingChanges(ctx context.Context, actorID string) ([]store.FaceChangeRecord, error) {
	actor, err := s.faceActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !CanReviewFaceChange(actor) {
		return nil, authorizationf("staff only")
	}
	return s.changes.ListPending(ctx)
}

func (s *FaceService) faceActor(ctx context.Context, actorID string) (store.User, error) {
	if actorID == "" {
		return store.User{}, authorizationf("acting user is required")
	}
	actor, err := s.users.Get(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, authorizationf("unknown user %q", actorID)
	}
	if err != nil {
		return store.User{}, err
	}
	return actor, nil
}

func (s *FaceService) getChange(ctx context.Context, id string) (store.FaceChangeRecord, error) {
	rec, err := s.changes.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.FaceChangeRecord{}, fmt.Errorf("%w: change request %s", ErrNotFound, id)
	}
	if err != nil {
		return store.FaceChangeRecord{}, err
	}
	return rec, nil
}

func (s *FaceService) mapChangeStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrStateConflict):
		return fmt.Errorf("%w: the change request was already reviewed", ErrInvalidState)
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (s *FaceService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// mapEnrollErr translates a faceclient failure into the service taxonomy,
// keeping the per-photo reason for user messaging.
func mapEnrollErr(err error) error {
	var enrollErr *faceclient.EnrollError
	if errors.As(err, &enrollErr) {
		return fmt.Errorf("%w: %s photo: %s", ErrVerificationFailed, enrollErr.Label, enrollErr.Message)
	}
	if errors.Is(err, faceclient.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return err
}
