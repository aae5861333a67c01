package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

// NumberPrefix is the business identifier prefix for claims.
const NumberPrefix = "CLM"

// Status represents the lifecycle state of a claim. SUBMITTED is the entry
// state and transitions exactly once, to APPROVED or REJECTED.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// ValidStatus reports whether s is a known claim status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Claim mirrors the claims table. The id, created_at and updated_at columns
// are assigned by storage.
type Claim struct {
	ID              string
	Number          string
	PolicyID        string
	Description     string
	Amount          decimal.Decimal
	IncidentDate    time.Time
	Status          Status
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SubmitParams contains the caller-supplied fields for a new claim.
type SubmitParams struct {
	PolicyID     string
	Description  string
	Amount       decimal.Decimal
	IncidentDate time.Time
}
