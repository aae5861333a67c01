package httpapi

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"policyflow/policy"
)

// PolicyRequest is the wire shape of a policy creation request.
type PolicyRequest struct {
	CustomerName   string          `json:"customerName"`
	CustomerEmail  string          `json:"customerEmail"`
	PolicyType     string          `json:"policyType"`
	CoverageAmount decimal.Decimal `json:"coverageAmount"`
	PremiumAmount  decimal.Decimal `json:"premiumAmount"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
}

func (req PolicyRequest) toParams(now time.Time) (policy.CreateParams, string) {
	name := strings.TrimSpace(req.CustomerName)
	if len(name) < 2 || len(name) > 100 {
		return policy.CreateParams{}, "customerName must be between 2 and 100 characters"
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return policy.CreateParams{}, "customerEmail must be a valid email address"
	}
	policyType := policy.Type(req.PolicyType)
	if !policy.ValidType(policyType) {
		return policy.CreateParams{}, "policyType must be one of HEALTH, AUTO, HOME, LIFE"
	}
	if !req.CoverageAmount.IsPositive() {
		return policy.CreateParams{}, "coverageAmount must be positive"
	}
	if !req.PremiumAmount.IsPositive() {
		return policy.CreateParams{}, "premiumAmount must be positive"
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return policy.CreateParams{}, "startDate must be formatted YYYY-MM-DD"
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return policy.CreateParams{}, "endDate must be formatted YYYY-MM-DD"
	}
	if startDate.Before(dateOnly(now)) {
		return policy.CreateParams{}, "startDate cannot be in the past"
	}

	return policy.CreateParams{
		CustomerName:   name,
		CustomerEmail:  req.CustomerEmail,
		Type:           policyType,
		CoverageAmount: req.CoverageAmount,
		PremiumAmount:  req.PremiumAmount,
		StartDate:      startDate,
		EndDate:        endDate,
	}, ""
}

func (s *Server) createPolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params, problem := req.toParams(time.Now().UTC())
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	created, err := s.policies.Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyResponse(created))
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "policy")
	if !ok {
		return
	}

	p, err := s.policies.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyResponse(p))
}

func (s *Server) listPolicies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 0
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "page must be a non-negative integer")
			return
		}
		page = parsed
	}

	size := 20
	if raw := q.Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "size must be between 1 and 100")
			return
		}
		size = parsed
	}

	filters := policy.Filters{
		CustomerEmail:  q.Get("customerEmail"),
		NumberContains: q.Get("policyNumber"),
		Page:           page,
		PageSize:       size,
	}

	if raw := q.Get("status"); raw != "" {
		status := policy.Status(raw)
		if !policy.ValidStatus(status) {
			writeError(w, http.StatusBadRequest, "status must be one of ACTIVE, EXPIRED, CANCELLED")
			return
		}
		filters.Status = status
	}
	if raw := q.Get("policyType"); raw != "" {
		policyType := policy.Type(raw)
		if !policy.ValidType(policyType) {
			writeError(w, http.StatusBadRequest, "policyType must be one of HEALTH, AUTO, HOME, LIFE")
			return
		}
		filters.Type = policyType
	}

	result, err := s.policies.List(r.Context(), filters)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPagedPolicyResponse(result))
}

func (s *Server) renewPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "policy")
	if !ok {
		return
	}

	renewed, err := s.policies.Renew(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyResponse(renewed))
}

func (s *Server) cancelPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "policy")
	if !ok {
		return
	}

	if err := s.policies.Cancel(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID extracts and validates a uuid path parameter, rejecting malformed
// ids before they reach storage.
func pathID(w http.ResponseWriter, r *http.Request, param, resource string) (string, bool) {
	raw := chi.URLParam(r, param)
	if _, err := uuid.Parse(raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+resource+" id")
		return "", false
	}
	return raw, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
