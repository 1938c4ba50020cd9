package service

import "github.com/cardea-project/cardea/internal/cardea/store"

// CanDecide reports whether the actor may approve or deny requests for the
// location: superusers anywhere, otherwise only the location's PIC. A
// location without a PIC is decidable by superusers alone.
func CanDecide(actor store.User, loc store.Location) bool {
	if actor.Superuser {
		return true
	}
	return loc.PICUserID != "" && loc.PICUserID == actor.ID
}

// CanOperate reports whether the actor may progress the request through
// check-in and check-out. Only the requester may: approvers never
// self-service another person's physical presence.
func CanOperate(actor store.User, rec store.AccessRecord) bool {
	return actor.ID == rec.RequesterID
}

// CanReviewFaceChange reports whether the actor may approve or deny
// re-enrollment requests. Staff-wide rather than PIC-scoped: swapping a
// verification identity is a global concern, not a site one.
func CanReviewFaceChange(actor store.User) bool {
	return actor.Staff
}
