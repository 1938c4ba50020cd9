package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/store/sqlite"
)

func TestUserStore_GetAndSetFaceEnrolled(t *testing.T) {
	conn := openTestDB(t)
	seedDirectory(t, conn)
	s := sqlite.NewUserStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	u, err := s.Get(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, "bob", u.Username)
	require.True(t, u.Staff)
	require.False(t, u.Superuser)
	require.False(t, u.FaceEnrolled)

	require.NoError(t, s.SetFaceEnrolled(ctx, "B", true))

	u, err = s.Get(ctx, "B")
	require.NoError(t, err)
	require.True(t, u.FaceEnrolled)

	_, err = s.Get(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.SetFaceEnrolled(ctx, "nope", true)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLocationStore_Get(t *testing.T) {
	conn := openTestDB(t)
	seedDirectory(t, conn)
	s := sqlite.NewLocationStore(conn)
	ctx := context.Background()

	loc, err := s.Get(ctx, "L")
	require.NoError(t, err)
	require.Equal(t, "East Server Room", loc.Name)
	require.Equal(t, "B", loc.PICUserID)

	// NULL pic_user_id comes back as empty.
	loc, err = s.Get(ctx, "NP")
	require.NoError(t, err)
	require.Empty(t, loc.PICUserID)

	_, err = s.Get(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategoryStore_CategoryExists(t *testing.T) {
	conn := openTestDB(t)
	seedDirectory(t, conn)
	s := sqlite.NewCategoryStore(conn)
	ctx := context.Background()

	ok, err := s.CategoryExists(ctx, "Maintenance", "Cabling")
	require.NoError(t, err)
	require.True(t, ok)

	// Category without a subcategory constraint.
	ok, err = s.CategoryExists(ctx, "Maintenance", "")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.CategoryExists(ctx, "Maintenance", "Welding")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.CategoryExists(ctx, "Demolition", "")
	require.NoError(t, err)
	require.False(t, ok)
}
