package types

// Status is the lifecycle state of an access request. The set is closed:
// transitions only ever move forward along
// Pending -> {Approved|Denied} -> Checked-In -> Completed.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusDenied    Status = "Denied"
	StatusCheckedIn Status = "Checked-In"
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusCheckedIn, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusDenied || s == StatusCompleted
}

// Decision is an approver's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionDeny    Decision = "Deny"
)

// Outcome classifies a completed visit in the check-out report.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomePartial Outcome = "Partial"
	OutcomeFailed  Outcome = "Failed"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomePartial, OutcomeFailed:
		return true
	}
	return false
}

// CreateRequest is the payload for opening a new access request.
type CreateRequest struct {
	LocationID   string   `json:"location_id" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	Subcategory  string   `json:"subcategory,omitempty"`
	Activities   []string `json:"activities,omitempty"`
	Notes        string   `json:"notes" validate:"required"`
	GroupMembers string   `json:"group_members,omitempty"`
}

// CheckOutRequest is the payload for completing a checked-in visit.
type CheckOutRequest struct {
	Report  string  `json:"report" validate:"required"`
	Outcome Outcome `json:"outcome" validate:"required,oneof=Success Partial Failed"`
}
