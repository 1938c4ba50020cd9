package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardea-project/cardea/internal/cardea/service"
	"github.com/cardea-project/cardea/internal/cardea/store"
)

func TestCanDecide(t *testing.T) {
	pic := store.User{ID: "pic"}
	superuser := store.User{ID: "su", Superuser: true}
	other := store.User{ID: "other", Staff: true}

	withPIC := store.Location{ID: "L", PICUserID: "pic"}
	noPIC := store.Location{ID: "NP"}

	require.True(t, service.CanDecide(pic, withPIC))
	require.True(t, service.CanDecide(superuser, withPIC))
	require.True(t, service.CanDecide(superuser, noPIC))

	// Staff alone is not enough; decision rights are PIC-scoped.
	require.False(t, service.CanDecide(other, withPIC))

	// A PIC-less location is decidable only by superusers. In particular
	// an actor with an empty id must not match the empty PIC field.
	require.False(t, service.CanDecide(pic, noPIC))
	require.False(t, service.CanDecide(store.User{ID: ""}, noPIC))
}

func TestCanOperate(t *testing.T) {
	rec := store.AccessRecord{ID: "r", RequesterID: "A"}

	require.True(t, service.CanOperate(store.User{ID: "A"}, rec))
	require.False(t, service.CanOperate(store.User{ID: "B", Superuser: true}, rec))
}

func TestCanReviewFaceChange(t *testing.T) {
	require.True(t, service.CanReviewFaceChange(store.User{ID: "s", Staff: true}))
	require.True(t, service.CanReviewFaceChange(store.User{ID: "su", Staff: true, Superuser: true}))
	require.False(t, service.CanReviewFaceChange(store.User{ID: "u"}))
}
