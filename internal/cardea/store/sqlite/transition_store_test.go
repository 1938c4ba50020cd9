package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardea-project/cardea/internal/cardea/store"
	"github.com/cardea-project/cardea/internal/cardea/store/sqlite"
	"github.com/cardea-project/cardea/internal/cardea/types"
)

func TestTransitionStore_RecordTransition(t *testing.T) {
	conn := openTestDB(t)
	seedDirectory(t, conn)
	s := sqlite.NewTransitionStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordTransition(ctx, store.TransitionRecord{
		RequestID:  "r1",
		ActorID:    "B",
		FromStatus: types.StatusPending,
		ToStatus:   types.StatusApproved,
		Reason:     "approved",
		OccurredAt: at,
	}))

	var (
		actor, from, to, reason string
		occurredMs              int64
	)
	err := conn.QueryRow(`
SELECT actor_id, from_status, to_status, reason, occurred_at_ms
FROM transitions WHERE request_id = 'r1';`).Scan(&actor, &from, &to, &reason, &occurredMs)
	require.NoError(t, err)
	require.Equal(t, "B", actor)
	require.Equal(t, "Pending", from)
	require.Equal(t, "Approved", to)
	require.Equal(t, "approved", reason)
	require.Equal(t, at.UnixMilli(), occurredMs)
}
