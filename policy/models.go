package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// NumberPrefix is the business identifier prefix for policies.
const NumberPrefix = "POL"

// Status represents the lifecycle state of a policy. ACTIVE is the only entry
// state; CANCELLED and EXPIRED are terminal for every operation here except
// renewal, which still accepts EXPIRED.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// ValidStatus reports whether s is a known policy status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// Type enumerates the supported policy products.
type Type string

const (
	TypeHealth Type = "HEALTH"
	TypeAuto   Type = "AUTO"
	TypeHome   Type = "HOME"
	TypeLife   Type = "LIFE"
)

// ValidType reports whether t is a known policy type.
func ValidType(t Type) bool {
	switch t {
	case TypeHealth, TypeAuto, TypeHome, TypeLife:
		return true
	default:
		return false
	}
}

// Policy mirrors the policies table. The id, created_at and updated_at
// columns are assigned by storage; the service never sets them.
type Policy struct {
	ID             string
	Number         string
	CustomerName   string
	CustomerEmail  string
	Type           Type
	CoverageAmount decimal.Decimal
	PremiumAmount  decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateParams contains the caller-supplied fields for a new policy.
type CreateParams struct {
	CustomerName   string
	CustomerEmail  string
	Type           Type
	CoverageAmount decimal.Decimal
	PremiumAmount  decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
}

// Filters holds the optional predicates of a policy query. Zero values
// contribute no constraint; present values are combined with AND.
type Filters struct {
	CustomerEmail  string
	NumberContains string
	Status         Status
	Type           Type
	Page           int
	PageSize       int
}

// Page is one slice of an ordered query result plus the counts and flags
// locating it within the whole.
type Page struct {
	Items         []Policy
	Number        int
	Size          int
	TotalElements int
	TotalPages    int
	First         bool
	Last          bool
	Empty         bool
}

// NewPage derives the positional counts and flags from the raw page data.
func NewPage(items []Policy, number, size, total int) Page {
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	return Page{
		Items:         items,
		Number:        number,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         number == 0,
		Last:          number >= totalPages-1,
		Empty:         len(items) == 0,
	}
}
