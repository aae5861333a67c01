package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"policyflow/domain"
	"policyflow/idgen"
	"policyflow/policy"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PolicyGateway is the slice of the policy store the claim service needs.
// Submission locks the parent policy row so a concurrent cancel either fully
// precedes or fully follows the claim write.
type PolicyGateway interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (policy.Policy, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// Metrics receives lifecycle events for instrumentation. Optional.
type Metrics interface {
	ClaimSubmitted()
	ClaimApproved()
	ClaimRejected()
}

// Service owns the claim lifecycle rules.
type Service struct {
	pool     TxBeginner
	repo     Repository
	policies PolicyGateway
	numbers  *idgen.Generator
	metrics  Metrics
}

func NewService(pool TxBeginner, repo Repository, policies PolicyGateway, numbers *idgen.Generator) *Service {
	if numbers == nil {
		numbers = idgen.New()
	}
	return &Service{
		pool:     pool,
		repo:     repo,
		policies: policies,
		numbers:  numbers,
	}
}

func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// Submit validates the claim against its parent policy and persists it in
// SUBMITTED status. Validation order: policy exists, policy ACTIVE, amount
// within coverage, incident date within the policy period (both boundaries
// inclusive).
func (s *Service) Submit(ctx context.Context, params SubmitParams) (Claim, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Claim{}, fmt.Errorf("claim: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	parent, err := s.policies.GetForUpdate(ctx, tx, params.PolicyID)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			return Claim{}, domain.NewNotFound("Policy", params.PolicyID)
		}
		return Claim{}, err
	}

	if err := validateSubmission(params, parent); err != nil {
		return Claim{}, err
	}

	created, err := s.insertWithUniqueNumber(ctx, tx, Claim{
		PolicyID:     parent.ID,
		Description:  params.Description,
		Amount:       params.Amount,
		IncidentDate: params.IncidentDate,
		Status:       StatusSubmitted,
	})
	if err != nil {
		return Claim{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Claim{}, fmt.Errorf("claim: commit submit: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ClaimSubmitted()
	}
	return created, nil
}

// Get returns the claim or a NotFound error.
func (s *Service) Get(ctx context.Context, id string) (Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Claim{}, domain.NewNotFound("Claim", id)
		}
		return Claim{}, err
	}
	return c, nil
}

// ListByPolicy returns every claim filed against the policy, newest first.
// An unknown policy id is a NotFound, distinct from a policy with no claims.
func (s *Service) ListByPolicy(ctx context.Context, policyID string) ([]Claim, error) {
	exists, err := s.policies.ExistsByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFound("Policy", policyID)
	}
	return s.repo.FindByPolicyID(ctx, policyID)
}

// UpdateStatus adjudicates a SUBMITTED claim. APPROVED and REJECTED are
// terminal; rejecting requires a non-blank reason which is stored with the
// claim.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status, rejectionReason *string) (Claim, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Claim{}, fmt.Errorf("claim: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Claim{}, domain.NewNotFound("Claim", id)
		}
		return Claim{}, err
	}

	if current.Status == StatusApproved || current.Status == StatusRejected {
		return Claim{}, domain.Violation("Cannot change status of an already approved or rejected claim")
	}
	if next != StatusApproved && next != StatusRejected {
		return Claim{}, domain.Violation("Status can only transition from SUBMITTED to APPROVED or REJECTED")
	}

	var reason *string
	if next == StatusRejected {
		if rejectionReason == nil || strings.TrimSpace(*rejectionReason) == "" {
			return Claim{}, domain.Violation("Rejection reason is required when rejecting a claim")
		}
		reason = rejectionReason
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, id, next, reason)
	if err != nil {
		return Claim{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Claim{}, fmt.Errorf("claim: commit status update: %w", err)
	}

	if s.metrics != nil {
		switch next {
		case StatusApproved:
			s.metrics.ClaimApproved()
		case StatusRejected:
			s.metrics.ClaimRejected()
		}
	}
	return updated, nil
}

// insertWithUniqueNumber allocates a claim number with bounded retries, same
// scheme as policy creation.
func (s *Service) insertWithUniqueNumber(ctx context.Context, tx pgx.Tx, c Claim) (Claim, error) {
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		number := s.numbers.Generate(NumberPrefix)

		taken, err := s.repo.ExistsByNumber(ctx, number)
		if err != nil {
			return Claim{}, err
		}
		if taken {
			continue
		}

		c.Number = number
		created, err := s.repo.Create(ctx, tx, c)
		if errors.Is(err, ErrDuplicateNumber) {
			continue
		}
		if err != nil {
			return Claim{}, err
		}
		return created, nil
	}
	return Claim{}, fmt.Errorf("claim: allocate claim number: %w", idgen.ErrExhausted)
}

func validateSubmission(params SubmitParams, parent policy.Policy) error {
	if parent.Status != policy.StatusActive {
		return domain.Violation("Claims can only be submitted for ACTIVE policies")
	}
	if params.Amount.Cmp(parent.CoverageAmount) > 0 {
		return domain.Violation("Claim amount cannot exceed policy coverage amount")
	}
	if params.IncidentDate.Before(parent.StartDate) || params.IncidentDate.After(parent.EndDate) {
		return domain.Violation("Incident date must be within the policy active period")
	}
	return nil
}
