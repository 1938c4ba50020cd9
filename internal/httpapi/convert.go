package httpapi

import (
	"time"

	"github.com/cardea-project/cardea/internal/cardea/store"
)

type accessRequestView struct {
	ID           string   `json:"id"`
	RequesterID  string   `json:"requester_id"`
	LocationID   string   `json:"location_id"`
	Status       string   `json:"status"`
	Category     string   `json:"category"`
	Subcategory  string   `json:"subcategory,omitempty"`
	Activities   []string `json:"activities,omitempty"`
	Notes        string   `json:"notes"`
	GroupMembers string   `json:"group_members,omitempty"`
	RequestedAt  string   `json:"requested_at"`
	EnteredAt    string   `json:"entered_at,omitempty"`
	ExitedAt     string   `json:"exited_at,omitempty"`
	ApprovedBy   string   `json:"approved_by,omitempty"`
	Report       string   `json:"report,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
}

func viewFromRecord(rec store.AccessRecord) accessRequestView {
	v := accessRequestView{
		ID:           rec.ID,
		RequesterID:  rec.RequesterID,
		LocationID:   rec.LocationID,
		Status:       string(rec.Status),
		Category:     rec.Category,
		Subcategory:  rec.Subcategory,
		Activities:   rec.Activities,
		Notes:        rec.Notes,
		GroupMembers: rec.GroupMembers,
		RequestedAt:  rec.RequestedAt.Format(time.RFC3339Nano),
		ApprovedBy:   rec.ApprovedBy,
		Report:       rec.Report,
		Outcome:      string(rec.Outcome),
	}
	if rec.EnteredAt != nil {
		v.EnteredAt = rec.EnteredAt.Format(time.RFC3339Nano)
	}
	if rec.ExitedAt != nil {
		v.ExitedAt = rec.ExitedAt.Format(time.RFC3339Nano)
	}
	return v
}

func viewsFromRecords(recs []store.AccessRecord) []accessRequestView {
	out := make([]accessRequestView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewFromRecord(rec))
	}
	return out
}

type faceChangeView struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
}

func viewFromChange(rec store.FaceChangeRecord) faceChangeView {
	return faceChangeView{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Status:      string(rec.Status),
		RequestedAt: rec.RequestedAt.Format(time.RFC3339Nano),
		ReviewedBy:  rec.ReviewedBy,
	}
}

func viewsFromChanges(recs []store.FaceChangeRecord) []faceChangeView {
	out := make([]faceChangeView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewFromChange(rec))
	}
	return out
}
