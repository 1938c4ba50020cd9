package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/types"
)

// Verifier is the slice of the biometric service the lifecycle needs.
type Verifier interface {
	Enroll(ctx context.Context, userID string, label types.PhotoLabel, image []byte) error
	Recognize(ctx context.Context, image []byte) ([]string, error)
}

// EntryPhotoStore is where verified check-in photos land before the record
// commit makes them live.
type EntryPhotoStore interface {
	SaveEntryPhoto(requestID string, image []byte) (string, error)
	RemoveEntryPhoto(path string) error
}

// AccessService orchestrates the request lifecycle:
// Pending -> Approved/Denied -> Checked-In -> Completed.
type AccessService struct {
	users       store.UserStore
	locations   store.LocationStore
	categories  store.CategoryStore
	requests    store.AccessRequestStore
	transitions store.TransitionStore
	verifier    Verifier
	photos      EntryPhotoStore
	validate    *validator.Validate
	logger      *log.Logger
	now         func() time.Time
}

type AccessServiceDeps struct {
	Users       store.UserStore
	Locations   store.LocationStore
	Categories  store.CategoryStore
	Requests    store.AccessRequestStore
	Transitions store.TransitionStore
	Verifier    Verifier
	Photos      EntryPhotoStore
	Logger      *log.Logger
}

func NewAccessService(d AccessServiceDeps) *AccessService {
	return &AccessService{
		users:       d.Users,
		locations:   d.Locations,
		categories:  d.Categories,
		requests:    d.Requests,
		transitions: d.Transitions,
		verifier:    d.Verifier,
		photos:      d.Photos,
		validate:    validator.New(),
		logger:      d.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest opens a new access request in Pending.
func (s *AccessService) CreateRequest(ctx context.Context, actorID string, req types.CreateRequest) (store.AccessRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return store.AccessRecord{}, validationf("%v", err)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return store.AccessRecord{}, err
	}

	if _, err := s.locations.Get(ctx, req.LocationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.AccessRecord{}, validationf("unknown location %q", req.LocationID)
		}
		return store.AccessRecord{}, err
	}

	ok, err := s.categories.CategoryExists(ctx, req.Category, req.Subcategory)
	if err != nil {
		return store.AccessRecord{}, err
	}
	if !ok {
		return store.AccessRecord{}, validationf("unknown activity category %q/%q", req.Category, req.Subcategory)
	}

	rec := store.AccessRecord{
		ID:           uuid.NewString(),
		RequesterID:  actor.ID,
		LocationID:   req.LocationID,
		Status:       types.StatusPending,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Activities:   req.Activities,
		Notes:        strings.TrimSpace(req.Notes),
		GroupMembers: req.GroupMembers,
		RequestedAt:  s.now(),
	}

	if err := s.requests.Create(ctx, rec); err != nil {
		return store.AccessRecord{}, fmt.Errorf("create request: %w", err)
	}

	s.recordTransition(ctx, rec.ID, actor.ID, "", types.StatusPending, "requested")
	return rec, nil
}

// Decide moves a Pending request to Approved or Denied. Only the
// location's PIC or a superuser may decide, and only once.
func (s *AccessService) Decide(ctx context.Context, actorID, requestID string, decision types.Decision) (store.AccessRecord, error) {
	if decision != types.DecisionApprove && decision != types.DecisionDeny {
		return store.AccessRecord{}, validationf("unknown decision %q", decision)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return store.AccessRecord{}, err
	}

	rec, err := s.getRecord(ctx, requestID)
	if err != nil {
		return store.AccessRecord{}, err
	}

	loc, err := s.locations.Get(ctx, rec.LocationID)
	if err != nil {
		return store.AccessRecord{}, fmt.Errorf("load location: %w", err)
	}
	if !CanDecide(actor, loc) {
		return store.AccessRecord{}, authorizationf("only the location PIC or a superuser may decide this request")
	}
	if rec.Status != types.StatusPending {
		return store.AccessRecord{}, fmt.Errorf("%w: request is %s, not Pending", ErrInvalidState, rec.Status)
	}

	target := types.StatusApproved
	reason := "approved"
	if decision == types.DecisionDeny {
		target = types.StatusDenied
		reason = "denied"
	}

	// The store re-checks the Pending precondition inside its transaction,
	// so two concurrent approvers cannot both decide.
	if err := s.requests.MarkDecided(ctx, requestID, target, actor.ID, s.now()); err != nil {
		return store.AccessRecord{}, s.mapStoreErr(err)
	}

	s.recordTransition(ctx, requestID, actor.ID, types.StatusPending, target, reason)
	return s.getRecord(ctx, requestID)
}

// CheckIn gates the Approved -> Checked-In transition on a face match. The
// probe photo goes to the verification service; the transition commits only
// if the service's matched ids contain the requester. On any other outcome
// the request stays Approved and the caller gets an error saying why.
func (s *AccessService) CheckIn(ctx context.Context, actorID, requestID string, probe []byte) (store.AccessRecord, error) {
	if len(probe) == 0 {
		return store.AccessRecord{}, validationf("a check-in photo is required")
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return store.AccessRecord{}, err
	}

	rec, err := s.getRecord(ctx, requestID)
	if err != nil {
		return store.AccessRecord{}, err
	}
	if !CanOperate(actor, rec) {
		return store.AccessRecord{}, authorizationf("only the requester may check in")
	}
	if rec.Status != types.StatusApproved {
		return store.AccessRecord{}, fmt.Errorf("%w: request is %s, not Approved", ErrInvalidState, rec.Status)
	}

	// The network call happens outside any record lock; the Approved
	// precondition is re-checked when the transition commits.
	// Any failure to get an answer fails closed: unreachable, timeout, or
	// a malformed response never grants check-in.
	matched, err := s.verifier.Recognize(ctx, probe)
	if err != nil {
		return store.AccessRecord{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if len(matched) == 0 {
		return store.AccessRecord{}, fmt.Errorf("%w: no face was detected in the photo", ErrVerificationFailed)
	}
	if !slices.Contains(matched, actor.ID) {
		return store.AccessRecord{}, fmt.Errorf("%w: the face does not match your enrolled profile", ErrVerificationFailed)
	}

	// Two-phase: write the artifact first, then commit the record that
	// references it. An uncommitted artifact is an orphan for the sweeper.
	photoPath, err := s.photos.SaveEntryPhoto(requestID, probe)
	if err != nil {
		return store.AccessRecord{}, fmt.Errorf("store entry photo: %w", err)
	}

	if err := s.requests.MarkCheckedIn(ctx, requestID, photoPath, s.now()); err != nil {
		_ = s.photos.RemoveEntryPhoto(photoPath)
		return store.AccessRecord{}, s.mapStoreErr(err)
	}

	s.recordTransition(ctx, requestID, actor.ID, types.StatusApproved, types.StatusCheckedIn, "face verified")
	return s.getRecord(ctx, requestID)
}

// CheckOut completes a checked-in visit with the activity report.
func (s *AccessService) CheckOut(ctx context.Context, actorID, requestID string, req types.CheckOutRequest) (store.AccessRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return store.AccessRecord{}, validationf("%v", err)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return store.AccessRecord{}, err
	}

	rec, err := s.getRecord(ctx, requestID)
	if err != nil {
		return store.AccessRecord{}, err
	}
	if !CanOperate(actor, rec) {
		return store.AccessRecord{}, authorizationf("only the requester may check out")
	}
	if rec.Status != types.StatusCheckedIn {
		return store.AccessRecord{}, fmt.Errorf("%w: request is %s, not Checked-In", ErrInvalidState, rec.Status)
	}

	if err := s.requests.MarkCompleted(ctx, requestID, req.Report, req.Outcome, s.now()); err != nil {
		return store.AccessRecord{}, s.mapStoreErr(err)
	}

	s.recordTransition(ctx, requestID, actor.ID, types.StatusCheckedIn, types.StatusCompleted, "checked out")
	return s.getRecord(ctx, requestID)
}

// GetRequest returns a single request if the actor may see it: the
// requester, the location PIC, or a superuser.
func (s *AccessService) GetRequest(ctx context.Context, actorID, requestID string) (store.AccessRecord, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return store.AccessRecord{}, err
	}
	rec, err := s.getRecord(ctx, requestID)
	if err != nil {
		return store.AccessRecord{}, err
	}
	if CanOperate(actor, rec) {
		return rec, nil
	}
	loc, err := s.locations.Get(ctx, rec.LocationID)
	if err != nil {
		return store.AccessRecord{}, err
	}
	if !CanDecide(actor, loc) {
		return store.AccessRecord{}, authorizationf("no access to this request")
	}
	return rec, nil
}

// History returns the actor's own requests, newest first.
func (s *AccessService) History(ctx context.Context, actorID string) ([]store.AccessRecord, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.requests.ListByRequester(ctx, actor.ID)
}

// PendingQueue returns the pending requests the actor may decide:
// everything for superusers, their locations' requests for PICs.
func (s *AccessService) PendingQueue(ctx context.Context, actorID string) ([]store.AccessRecord, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && !actor.Superuser {
		return nil, authorizationf("staff only")
	}
	picID := actor.ID
	if actor.Superuser {
		picID = ""
	}
	return s.requests.ListPending(ctx, picID)
}

func (s *AccessService) actor(ctx context.Context, actorID string) (store.User, error) {
	actorID = strings.TrimSpace(actorID)
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

func (s *AccessService) getRecord(ctx context.Context, id string) (store.AccessRecord, error) {
	rec, err := s.requests.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.AccessRecord{}, fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	if err != nil {
		return store.AccessRecord{}, err
	}
	return rec, nil
}

func (s *AccessService) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrStateConflict):
		return fmt.Errorf("%w: the request changed state concurrently", ErrInvalidState)
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// recordTransition writes to the audit log. Failures are logged, not
// returned: a failed audit write must not undo a committed transition.
func (s *AccessService) recordTransition(ctx context.Context, requestID, actorID string, from, to types.Status, reason string) {
	err := s.transitions.RecordTransition(ctx, store.TransitionRecord{
		RequestID:  requestID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Printf("audit write failed for request %s (%s -> %s): %v", requestID, from, to, err)
	}
}
