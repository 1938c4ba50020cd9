package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev populates a dev database with a minimal working directory:
// a superuser, a PIC, a plain requester, two locations, and the activity
// reference data the request form offers.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	users := []struct {
		id, username, fullName string
		staff, superuser       bool
	}{
		{"u-admin", "admin", "Site Administrator", true, true},
		{"u-pic", "pic.east", "Dana East", true, false},
		{"u-visitor", "visitor", "Sam Visitor", false, false},
	}
	for _, u := range users {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO users(
  user_id, username, full_name, is_staff, is_superuser,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`, u.id, u.username, u.fullName, boolInt(u.staff), boolInt(u.superuser), now, now); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	locations := []struct {
		id, name, address, pic string
	}{
		{"loc-east", "East Server Room", "1 Datacenter Way", "u-pic"},
		{"loc-west", "West Server Room", "2 Datacenter Way", ""},
	}
	for _, l := range locations {
		var pic any
		if l.pic != "" {
			pic = l.pic
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO locations(
  location_id, name, address, pic_user_id, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?);
`, l.id, l.name, l.address, pic, now, now); err != nil {
			return fmt.Errorf("seed location %s: %w", l.name, err)
		}
	}

	categories := map[string][]string{
		"Maintenance":  {"Hardware swap", "Cabling", "Cleaning"},
		"Installation": {"New rack", "Network gear"},
		"Inspection":   {"Audit", "Environmental"},
	}
	for name, subs := range categories {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO activity_categories(name) VALUES (?);`, name); err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		for _, sub := range subs {
			if _, err := db.ExecContext(ctx,
				`INSERT OR IGNORE INTO activity_subcategories(category, name) VALUES (?, ?);`,
				name, sub); err != nil {
				return fmt.Errorf("seed subcategory %s/%s: %w", name, sub, err)
			}
		}
	}

	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
