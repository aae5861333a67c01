package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"policyflow/claim"
)

const maxDescriptionLength = 500

// ClaimRequest is the wire shape of a claim submission.
type ClaimRequest struct {
	PolicyID     string          `json:"policyId"`
	Description  string          `json:"description"`
	ClaimAmount  decimal.Decimal `json:"claimAmount"`
	IncidentDate string          `json:"incidentDate"`
}

func (req ClaimRequest) toParams(now time.Time) (claim.SubmitParams, string) {
	if _, err := uuid.Parse(req.PolicyID); err != nil {
		return claim.SubmitParams{}, "policyId must be a valid id"
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return claim.SubmitParams{}, "description is required"
	}
	if len(req.Description) > maxDescriptionLength {
		return claim.SubmitParams{}, "description cannot exceed 500 characters"
	}
	if !req.ClaimAmount.IsPositive() {
		return claim.SubmitParams{}, "claimAmount must be positive"
	}

	incidentDate, err := time.Parse(dateLayout, req.IncidentDate)
	if err != nil {
		return claim.SubmitParams{}, "incidentDate must be formatted YYYY-MM-DD"
	}
	if incidentDate.After(dateOnly(now)) {
		return claim.SubmitParams{}, "incidentDate cannot be in the future"
	}

	return claim.SubmitParams{
		PolicyID:     req.PolicyID,
		Description:  req.Description,
		Amount:       req.ClaimAmount,
		IncidentDate: incidentDate,
	}, ""
}

// ClaimStatusUpdateRequest is the wire shape of an adjudication request.
type ClaimStatusUpdateRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejectionReason,omitempty"`
}

func (s *Server) submitClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params, problem := req.toParams(time.Now().UTC())
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	created, err := s.claims.Submit(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClaimResponse(created))
}

func (s *Server) getClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "claim")
	if !ok {
		return
	}

	c, err := s.claims.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(c))
}

func (s *Server) listClaimsByPolicy(w http.ResponseWriter, r *http.Request) {
	policyID, ok := pathID(w, r, "policyId", "policy")
	if !ok {
		return
	}

	claims, err := s.claims.ListByPolicy(r.Context(), policyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]ClaimResponse, 0, len(claims))
	for _, c := range claims {
		responses = append(responses, toClaimResponse(c))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) updateClaimStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "claim")
	if !ok {
		return
	}

	var req ClaimStatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := claim.Status(req.Status)
	if !claim.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "status must be one of SUBMITTED, APPROVED, REJECTED")
		return
	}

	updated, err := s.claims.UpdateStatus(r.Context(), id, status, req.RejectionReason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}
