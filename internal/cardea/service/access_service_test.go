package service_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardea-project/cardea/internal/cardea/service"
	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/store/memory"
	"github.com/cardea-project/cardea/internal/cardea/types"
	"github.com/cardea-project/cardea/internal/faceclient"
	"github.com/cardea-project/cardea/internal/photostore"
)

// fakeVerifier scripts the biometric service's answers.
type fakeVerifier struct {
	recognized   []string
	recognizeErr error
	enrollErr    error
	enrolled     []types.PhotoLabel
}

func (f *fakeVerifier) Enroll(_ context.Context, _ string, label types.PhotoLabel, _ []byte) error {
	if f.enrollErr != nil {
		return f.enrollErr
	}
	f.enrolled = append(f.enrolled, label)
	return nil
}

func (f *fakeVerifier) Recognize(_ context.Context, _ []byte) ([]string, error) {
	if f.recognizeErr != nil {
		return nil, f.recognizeErr
	}
	return f.recognized, nil
}

type accessFixture struct {
	svc         *service.AccessService
	requests    *memory.AccessRequestStore
	transitions *memory.TransitionStore
	verifier    *fakeVerifier
	photos      *photostore.Store
}

// Directory used by every test: requester A, PIC B over location L,
// a superuser, and a PIC-less location.
func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()

	users := memory.NewUserStore(
		store.User{ID: "A", Username: "alice", FaceEnrolled: true},
		store.User{ID: "B", Username: "bob", Staff: true},
		store.User{ID: "root", Username: "root", Staff: true, Superuser: true},
	)
	locations := memory.NewLocationStore(
		store.Location{ID: "L", Name: "East Server Room", PICUserID: "B"},
		store.Location{ID: "NP", Name: "West Server Room"},
	)
	categories := memory.NewCategoryStore(map[string][]string{
		"Maintenance": {"Cabling"},
	})

	requests := memory.NewAccessRequestStore(locations)
	transitions := memory.NewTransitionStore()
	verifier := &fakeVerifier{}

	photos, err := photostore.New(t.TempDir())
	require.NoError(t, err)

	svc := service.NewAccessService(service.AccessServiceDeps{
		Users:       users,
		Locations:   locations,
		Categories:  categories,
		Requests:    requests,
		Transitions: transitions,
		Verifier:    verifier,
		Photos:      photos,
		Logger:      log.New(io.Discard, "", 0),
	})

	return &accessFixture{
		svc:         svc,
		requests:    requests,
		transitions: transitions,
		verifier:    verifier,
		photos:      photos,
	}
}

func (f *accessFixture) createPending(t *testing.T, requester, location string) store.AccessRecord {
	t.Helper()
	rec, err := f.svc.CreateRequest(context.Background(), requester, types.CreateRequest{
		LocationID: location,
		Category:   "Maintenance",
		Notes:      "swap failed PSU in rack 4",
	})
	require.NoError(t, err)
	return rec
}

// ── CreateRequest ────────────────────────────────────────────────────────────

func TestCreateRequest_StartsPending(t *testing.T) {
	f := newAccessFixture(t)

	rec := f.createPending(t, "A", "L")

	require.Equal(t, types.StatusPending, rec.Status)
	require.Equal(t, "A", rec.RequesterID)
	require.False(t, rec.RequestedAt.IsZero())
	require.Empty(t, rec.ApprovedBy)
	require.Nil(t, rec.EnteredAt)

	trs := f.transitions.Transitions()
	require.Len(t, trs, 1)
	require.Equal(t, types.StatusPending, trs[0].ToStatus)
}

func TestCreateRequest_MissingNotes_Validation(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.svc.CreateRequest(context.Background(), "A", types.CreateRequest{
		LocationID: "L",
		Category:   "Maintenance",
	})
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestCreateRequest_UnknownCategory_Validation(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.svc.CreateRequest(context.Background(), "A", types.CreateRequest{
		LocationID: "L",
		Category:   "Demolition",
		Notes:      "n/a",
	})
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestCreateRequest_UnknownLocation_Validation(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.svc.CreateRequest(context.Background(), "A", types.CreateRequest{
		LocationID: "nowhere",
		Category:   "Maintenance",
		Notes:      "n/a",
	})
	require.ErrorIs(t, err, service.ErrValidation)
}

// ── Decide ───────────────────────────────────────────────────────────────────

func TestDecide_RequesterCannotDecideOwnRequest(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	_, err := f.svc.Decide(context.Background(), "A", rec.ID, types.DecisionApprove)
	require.ErrorIs(t, err, service.ErrAuthorization)

	got, err := f.requests.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, got.Status)
}

func TestDecide_PICApproves(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	got, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, types.StatusApproved, got.Status)
	require.Equal(t, "B", got.ApprovedBy)
}

func TestDecide_SuperuserMayDecideAnywhere(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "NP")

	got, err := f.svc.Decide(context.Background(), "root", rec.ID, types.DecisionDeny)
	require.NoError(t, err)
	require.Equal(t, types.StatusDenied, got.Status)
	require.Equal(t, "root", got.ApprovedBy)
}

func TestDecide_PICOfOtherLocation_Forbidden(t *testing.T) {
	f := newAccessFixture(t)
	// NP has no PIC; only superusers may decide there.
	rec := f.createPending(t, "A", "NP")

	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.ErrorIs(t, err, service.ErrAuthorization)
}

func TestDecide_AlreadyDecided_InvalidState(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	_, err = f.svc.Decide(context.Background(), "root", rec.ID, types.DecisionDeny)
	require.ErrorIs(t, err, service.ErrInvalidState)

	got, err := f.requests.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusApproved, got.Status)
	require.Equal(t, "B", got.ApprovedBy)
}

// ── CheckIn ──────────────────────────────────────────────────────────────────

func TestCheckIn_RequiresApprovedStatus(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	_, err := f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.ErrorIs(t, err, service.ErrInvalidState)
}

func TestCheckIn_OnlyRequesterMayCheckIn(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")
	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(context.Background(), "B", rec.ID, []byte("probe"))
	require.ErrorIs(t, err, service.ErrAuthorization)
}

func TestCheckIn_MismatchLeavesRequestApproved(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")
	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	// The service matched someone else entirely.
	f.verifier.recognized = []string{"B"}
	_, err = f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.ErrorIs(t, err, service.ErrVerificationFailed)
	require.Contains(t, err.Error(), "does not match")

	got, err := f.requests.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusApproved, got.Status)
	require.Empty(t, got.EntryPhoto)
	require.Nil(t, got.EnteredAt)
}

func TestCheckIn_NoFaceDetected_DistinctMessage(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")
	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	f.verifier.recognized = nil
	_, err = f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.ErrorIs(t, err, service.ErrVerificationFailed)
	require.Contains(t, err.Error(), "no face")
}

func TestCheckIn_ServiceDown_FailsClosed(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")
	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	f.verifier.recognizeErr = faceclient.ErrUnavailable
	_, err = f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.ErrorIs(t, err, service.ErrServiceUnavailable)
	require.False(t, errors.Is(err, service.ErrVerificationFailed))

	got, err := f.requests.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusApproved, got.Status)
}

func TestCheckIn_Match_SetsPhotoAndTimestampTogether(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")
	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	f.verifier.recognized = []string{"A", "someone-else"}
	got, err := f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.NoError(t, err)
	require.Equal(t, types.StatusCheckedIn, got.Status)
	require.NotEmpty(t, got.EntryPhoto)
	require.NotNil(t, got.EnteredAt)
}

// ── CheckOut ─────────────────────────────────────────────────────────────────

func TestCheckOut_CompletesVisit(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")
	_, err := f.svc.Decide(context.Background(), "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)

	f.verifier.recognized = []string{"A"}
	_, err = f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.NoError(t, err)

	got, err := f.svc.CheckOut(context.Background(), "A", rec.ID, types.CheckOutRequest{
		Report:  "replaced PSU, verified load",
		Outcome: types.OutcomeSuccess,
	})
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, got.Status)
	require.Equal(t, "replaced PSU, verified load", got.Report)
	require.Equal(t, types.OutcomeSuccess, got.Outcome)
	require.NotNil(t, got.ExitedAt)
	require.False(t, got.ExitedAt.Before(*got.EnteredAt))
}

func TestCheckOut_RequiresCheckedInStatus(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	_, err := f.svc.CheckOut(context.Background(), "A", rec.ID, types.CheckOutRequest{
		Report:  "n/a",
		Outcome: types.OutcomeFailed,
	})
	require.ErrorIs(t, err, service.ErrInvalidState)
}

func TestCheckOut_InvalidOutcome_Validation(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	_, err := f.svc.CheckOut(context.Background(), "A", rec.ID, types.CheckOutRequest{
		Report:  "n/a",
		Outcome: "Shrug",
	})
	require.ErrorIs(t, err, service.ErrValidation)
}

// ── Denied is terminal ───────────────────────────────────────────────────────

func TestDeniedRequest_CannotCheckIn(t *testing.T) {
	f := newAccessFixture(t)
	rec := f.createPending(t, "A", "L")

	_, err := f.svc.Decide(context.Background(), "root", rec.ID, types.DecisionDeny)
	require.NoError(t, err)

	f.verifier.recognized = []string{"A"}
	_, err = f.svc.CheckIn(context.Background(), "A", rec.ID, []byte("probe"))
	require.ErrorIs(t, err, service.ErrInvalidState)
}

// ── Full lifecycle scenario ──────────────────────────────────────────────────

func TestLifecycle_EndToEnd(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	rec := f.createPending(t, "A", "L")

	// Requester may not self-approve.
	_, err := f.svc.Decide(ctx, "A", rec.ID, types.DecisionApprove)
	require.ErrorIs(t, err, service.ErrAuthorization)

	// PIC approves.
	got, err := f.svc.Decide(ctx, "B", rec.ID, types.DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, types.StatusApproved, got.Status)
	require.Equal(t, "B", got.ApprovedBy)

	// First probe matches the wrong person; request stays Approved.
	f.verifier.recognized = []string{"B"}
	_, err = f.svc.CheckIn(ctx, "A", rec.ID, []byte("probe-1"))
	require.ErrorIs(t, err, service.ErrVerificationFailed)

	// Retry with a matching probe.
	f.verifier.recognized = []string{"A"}
	got, err = f.svc.CheckIn(ctx, "A", rec.ID, []byte("probe-2"))
	require.NoError(t, err)
	require.Equal(t, types.StatusCheckedIn, got.Status)
	require.NotEmpty(t, got.EntryPhoto)

	got, err = f.svc.CheckOut(ctx, "A", rec.ID, types.CheckOutRequest{
		Report:  "ok",
		Outcome: types.OutcomeSuccess,
	})
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, got.Status)
	require.NotNil(t, got.ExitedAt)

	// Audit trail covers every committed transition.
	trs := f.transitions.Transitions()
	require.Len(t, trs, 4)
	require.Equal(t, types.StatusCompleted, trs[3].ToStatus)
}

// ── Queues ───────────────────────────────────────────────────────────────────

func TestPendingQueue_ScopedToPIC(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	inL := f.createPending(t, "A", "L")
	inNP := f.createPending(t, "A", "NP")

	// PIC B sees only their own location's requests.
	got, err := f.svc.PendingQueue(ctx, "B")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, inL.ID, got[0].ID)

	// The superuser sees everything.
	got, err = f.svc.PendingQueue(ctx, "root")
	require.NoError(t, err)
	require.Len(t, got, 2)
	_ = inNP

	// Plain users have no queue.
	_, err = f.svc.PendingQueue(ctx, "A")
	require.ErrorIs(t, err, service.ErrAuthorization)
}

func TestHistory_OwnRequestsOnly(t *testing.T) {
	f := newAccessFixture(t)

	f.createPending(t, "A", "L")
	f.createPending(t, "A", "NP")

	got, err := f.svc.History(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = f.svc.History(context.Background(), "B")
	require.NoError(t, err)
	require.Empty(t, got)
}
