package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"policyflow/domain"
	"policyflow/idgen"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Metrics receives lifecycle events for instrumentation. Optional.
type Metrics interface {
	PolicyCreated()
	PolicyRenewed()
	PolicyCancelled()
}

// Service owns the policy lifecycle rules. Every mutation re-reads current
// state inside a transaction before validating and writing.
type Service struct {
	pool    TxBeginner
	repo    Repository
	numbers *idgen.Generator
	metrics Metrics
}

func NewService(pool TxBeginner, repo Repository, numbers *idgen.Generator) *Service {
	if numbers == nil {
		numbers = idgen.New()
	}
	return &Service{
		pool:    pool,
		repo:    repo,
		numbers: numbers,
	}
}

func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// Create validates the coverage window and amounts, allocates a unique policy
// number and persists the new ACTIVE policy.
func (s *Service) Create(ctx context.Context, params CreateParams) (Policy, error) {
	if err := validateCreate(params); err != nil {
		return Policy{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Policy{}, fmt.Errorf("policy: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := s.insertWithUniqueNumber(ctx, tx, Policy{
		CustomerName:   params.CustomerName,
		CustomerEmail:  params.CustomerEmail,
		Type:           params.Type,
		CoverageAmount: params.CoverageAmount,
		PremiumAmount:  params.PremiumAmount,
		StartDate:      params.StartDate,
		EndDate:        params.EndDate,
		Status:         StatusActive,
	})
	if err != nil {
		return Policy{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Policy{}, fmt.Errorf("policy: commit create: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PolicyCreated()
	}
	return created, nil
}

// Get returns the policy or a NotFound error.
func (s *Service) Get(ctx context.Context, id string) (Policy, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Policy{}, domain.NewNotFound("Policy", id)
		}
		return Policy{}, err
	}
	return p, nil
}

// List runs the composable filter query and shapes the paged result.
func (s *Service) List(ctx context.Context, filters Filters) (Page, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return Page{}, err
	}

	size := filters.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	page := filters.Page
	if page < 0 {
		page = 0
	}
	return NewPage(items, page, size, total), nil
}

// Renew creates a new policy continuing an existing one: the new coverage
// window starts the day after the old end date and runs one year. The
// original record is left untouched. An EXPIRED policy may be renewed; only
// CANCELLED blocks renewal.
func (s *Service) Renew(ctx context.Context, id string) (Policy, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Policy{}, fmt.Errorf("policy: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the original so a concurrent cancel either lands before this read
	// or waits until the renewal commits.
	existing, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Policy{}, domain.NewNotFound("Policy", id)
		}
		return Policy{}, err
	}

	if existing.Status == StatusCancelled {
		return Policy{}, domain.Violation("Cannot renew a cancelled policy")
	}

	newStart := existing.EndDate.AddDate(0, 0, 1)
	newEnd := newStart.AddDate(1, 0, 0)

	renewed, err := s.insertWithUniqueNumber(ctx, tx, Policy{
		CustomerName:   existing.CustomerName,
		CustomerEmail:  existing.CustomerEmail,
		Type:           existing.Type,
		CoverageAmount: existing.CoverageAmount,
		PremiumAmount:  existing.PremiumAmount,
		StartDate:      newStart,
		EndDate:        newEnd,
		Status:         StatusActive,
	})
	if err != nil {
		return Policy{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Policy{}, fmt.Errorf("policy: commit renew: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PolicyRenewed()
	}
	return renewed, nil
}

// Cancel moves an ACTIVE policy to CANCELLED. A second cancel fails rather
// than silently succeeding.
func (s *Service) Cancel(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("policy: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.NewNotFound("Policy", id)
		}
		return err
	}

	if p.Status != StatusActive {
		return domain.Violation("Only ACTIVE policies can be cancelled")
	}

	if _, err := s.repo.UpdateStatus(ctx, tx, id, StatusCancelled); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("policy: commit cancel: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PolicyCancelled()
	}
	return nil
}

// insertWithUniqueNumber allocates a policy number, checking storage for
// collisions and retrying a bounded number of times. A duplicate-key insert
// counts as a collision too: the exists-check races concurrent creates.
func (s *Service) insertWithUniqueNumber(ctx context.Context, tx pgx.Tx, p Policy) (Policy, error) {
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		number := s.numbers.Generate(NumberPrefix)

		taken, err := s.repo.ExistsByNumber(ctx, number)
		if err != nil {
			return Policy{}, err
		}
		if taken {
			continue
		}

		p.Number = number
		created, err := s.repo.Create(ctx, tx, p)
		if errors.Is(err, ErrDuplicateNumber) {
			continue
		}
		if err != nil {
			return Policy{}, err
		}
		return created, nil
	}
	return Policy{}, fmt.Errorf("policy: allocate policy number: %w", idgen.ErrExhausted)
}

func validateCreate(params CreateParams) error {
	minEnd := params.StartDate.AddDate(0, 6, 0)
	if params.EndDate.Before(minEnd) {
		return domain.Violation("End date must be at least 6 months after start date")
	}
	if params.CoverageAmount.Cmp(params.PremiumAmount) <= 0 {
		return domain.Violation("Coverage amount must be greater than premium amount")
	}
	return nil
}
