package store

import "context"

// User is a directory record for an acting principal. Authentication and
// profile management live in the presentation layer; Cardea only needs the
// identity and the privilege bits the policy functions consume.
type User struct {
	ID           string
	Username     string
	FullName     string
	Department   string
	Phone        string
	Staff        bool
	Superuser    bool
	FaceEnrolled bool
}

// Location is a server room. PICUserID is the designated approver and may
// be empty, in which case only superusers can decide requests for it.
type Location struct {
	ID        string
	Name      string
	Address   string
	PICUserID string
	Latitude  *float64
	Longitude *float64
}

type UserStore interface {
	Get(ctx context.Context, id string) (User, error)
	SetFaceEnrolled(ctx context.Context, id string, enrolled bool) error
}

type LocationStore interface {
	Get(ctx context.Context, id string) (Location, error)
}

// CategoryStore exposes the activity reference data used to classify a
// visit. Categories are admin-managed; Cardea only validates against them.
type CategoryStore interface {
	// CategoryExists reports whether the category exists and, when
	// subcategory is non-empty, whether it belongs to that category.
	CategoryExists(ctx context.Context, category, subcategory string) (bool, error)
}
