package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"policyflow/claim"
	"policyflow/domain"
	"policyflow/idgen"
	"policyflow/policy"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

// PolicyResponse is the wire shape of a policy.
type PolicyResponse struct {
	ID             string          `json:"id"`
	PolicyNumber   string          `json:"policyNumber"`
	CustomerName   string          `json:"customerName"`
	CustomerEmail  string          `json:"customerEmail"`
	PolicyType     string          `json:"policyType"`
	CoverageAmount decimal.Decimal `json:"coverageAmount"`
	PremiumAmount  decimal.Decimal `json:"premiumAmount"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toPolicyResponse(p policy.Policy) PolicyResponse {
	return PolicyResponse{
		ID:             p.ID,
		PolicyNumber:   p.Number,
		CustomerName:   p.CustomerName,
		CustomerEmail:  p.CustomerEmail,
		PolicyType:     string(p.Type),
		CoverageAmount: p.CoverageAmount,
		PremiumAmount:  p.PremiumAmount,
		StartDate:      p.StartDate.Format(dateLayout),
		EndDate:        p.EndDate.Format(dateLayout),
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// PagedPolicyResponse mirrors the paged result shape of the query engine.
type PagedPolicyResponse struct {
	Content       []PolicyResponse `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int              `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
	First         bool             `json:"first"`
	Last          bool             `json:"last"`
	Empty         bool             `json:"empty"`
}

func toPagedPolicyResponse(page policy.Page) PagedPolicyResponse {
	content := make([]PolicyResponse, 0, len(page.Items))
	for _, p := range page.Items {
		content = append(content, toPolicyResponse(p))
	}
	return PagedPolicyResponse{
		Content:       content,
		Page:          page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
		Empty:         page.Empty,
	}
}

// ClaimResponse is the wire shape of a claim.
type ClaimResponse struct {
	ID              string          `json:"id"`
	ClaimNumber     string          `json:"claimNumber"`
	PolicyID        string          `json:"policyId"`
	Description     string          `json:"description"`
	ClaimAmount     decimal.Decimal `json:"claimAmount"`
	IncidentDate    string          `json:"incidentDate"`
	Status          string          `json:"status"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toClaimResponse(c claim.Claim) ClaimResponse {
	return ClaimResponse{
		ID:              c.ID,
		ClaimNumber:     c.Number,
		PolicyID:        c.PolicyID,
		Description:     c.Description,
		ClaimAmount:     c.Amount,
		IncidentDate:    c.IncidentDate.Format(dateLayout),
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}

// writeDomainError translates core error kinds into HTTP status codes:
// NotFound 404, RuleViolation 409, identifier exhaustion 503, anything else
// 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	var nf *domain.NotFound
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}

	var rv *domain.RuleViolation
	if errors.As(err, &rv) {
		writeError(w, http.StatusConflict, rv.Error())
		return
	}

	if errors.Is(err, idgen.ErrExhausted) {
		writeError(w, http.StatusServiceUnavailable, "could not allocate a unique identifier, retry later")
		return
	}

	writeError(w, http.StatusInternalServerError, "internal server error")
}
