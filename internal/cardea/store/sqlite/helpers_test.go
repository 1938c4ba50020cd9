package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cardea-project/cardea/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedDirectory inserts the users and locations the lifecycle rows reference:
// requester "A", PIC "B" over location "L", superuser "root", and location
// "NP" with no PIC.
func seedDirectory(t *testing.T, conn *sql.DB) {
	t.Helper()

	now := time.Now().UTC().UnixMilli()
	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO users(user_id, username, is_staff, is_superuser, created_at_ms, updated_at_ms)
		  VALUES (?, ?, ?, ?, ?, ?);`, []any{"A", "alice", 0, 0, now, now}},
		{`INSERT INTO users(user_id, username, is_staff, is_superuser, created_at_ms, updated_at_ms)
		  VALUES (?, ?, ?, ?, ?, ?);`, []any{"B", "bob", 1, 0, now, now}},
		{`INSERT INTO users(user_id, username, is_staff, is_superuser, created_at_ms, updated_at_ms)
		  VALUES (?, ?, ?, ?, ?, ?);`, []any{"root", "root", 1, 1, now, now}},
		{`INSERT INTO locations(location_id, name, pic_user_id, created_at_ms, updated_at_ms)
		  VALUES (?, ?, ?, ?, ?);`, []any{"L", "East Server Room", "B", now, now}},
		{`INSERT INTO locations(location_id, name, created_at_ms, updated_at_ms)
		  VALUES (?, ?, ?, ?);`, []any{"NP", "West Server Room", now, now}},
		{`INSERT INTO activity_categories(name) VALUES ('Maintenance');`, nil},
		{`INSERT INTO activity_subcategories(category, name) VALUES ('Maintenance', 'Cabling');`, nil},
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s.q, s.args...); err != nil {
			t.Fatalf("seedDirectory: %v", err)
		}
	}
}
