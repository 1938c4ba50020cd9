package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
	dbpkg "github.com/cardea-project/cardea/internal/db"
)

type UserStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUserStore(db *sql.DB, writer *dbpkg.Worker) *UserStore {
	return &UserStore{db: db, writer: writer}
}

func (s *UserStore) Get(ctx context.Context, id string) (store.User, error) {
	var (
		u                          store.User
		staff, superuser, enrolled int
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, username, full_name, department, phone,
       is_staff, is_superuser, face_enrolled
FROM users WHERE user_id = ?;`, id).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Department, &u.Phone,
		&staff, &superuser, &enrolled,
	)
	if err == sql.ErrNoRows {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("user Get: %w", err)
	}
	u.Staff = staff == 1
	u.Superuser = superuser == 1
	u.FaceEnrolled = enrolled == 1
	return u, nil
}

func (s *UserStore) SetFaceEnrolled(ctx context.Context, id string, enrolled bool) error {
	v := 0
	if enrolled {
		v = 1
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users SET face_enrolled = ?, updated_at_ms = ? WHERE user_id = ?;`,
			v, time.Now().UTC().UnixMilli(), id)
		if err != nil {
			return fmt.Errorf("SetFaceEnrolled: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func (s *LocationStore) Get(ctx context.Context, id string) (store.Location, error) {
	var (
		loc      store.Location
		pic      sql.NullString
		lat, lng sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT location_id, name, address, pic_user_id, latitude, longitude
FROM locations WHERE location_id = ?;`, id).Scan(
		&loc.ID, &loc.Name, &loc.Address, &pic, &lat, &lng,
	)
	if err == sql.ErrNoRows {
		return store.Location{}, store.ErrNotFound
	}
	if err != nil {
		return store.Location{}, fmt.Errorf("location Get: %w", err)
	}
	if pic.Valid {
		loc.PICUserID = pic.String
	}
	if lat.Valid {
		loc.Latitude = &lat.Float64
	}
	if lng.Valid {
		loc.Longitude = &lng.Float64
	}
	return loc, nil
}

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) CategoryExists(ctx context.Context, category, subcategory string) (bool, error) {
	var one int
	if subcategory == "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM activity_categories WHERE name = ?;`, category).Scan(&one)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("CategoryExists: %w", err)
		}
		return true, nil
	}

	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM activity_subcategories WHERE category = ? AND name = ?;`,
		category, subcategory).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("CategoryExists: %w", err)
	}
	return true, nil
}
