package claim

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"policyflow/domain"
	"policyflow/idgen"
	"policyflow/policy"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activePolicy() policy.Policy {
	return policy.Policy{
		ID:             "policy-1",
		Number:         "POL-2026-123456789",
		CustomerName:   "Alice Holder",
		CustomerEmail:  "alice@example.com",
		Type:           policy.TypeAuto,
		CoverageAmount: decimal.NewFromInt(50000),
		PremiumAmount:  decimal.NewFromInt(900),
		StartDate:      date(2026, 1, 1),
		EndDate:        date(2027, 1, 1),
		Status:         policy.StatusActive,
	}
}

func validSubmit() SubmitParams {
	return SubmitParams{
		PolicyID:     "policy-1",
		Description:  "Rear-end collision on highway",
		Amount:       decimal.NewFromInt(4200),
		IncidentDate: date(2026, 5, 10),
	}
}

func newTestService(p policy.Policy) (*Service, *fakeClaimRepo, *fakePolicyGateway) {
	repo := newFakeClaimRepo()
	gateway := &fakePolicyGateway{policies: map[string]policy.Policy{p.ID: p}}
	svc := NewService(&fakePool{}, repo, gateway, idgen.New())
	return svc, repo, gateway
}

func TestSubmit_Success(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	c, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if c.Status != StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", c.Status)
	}
	if c.Number == "" {
		t.Fatal("expected generated claim number")
	}
	if c.PolicyID != "policy-1" {
		t.Fatalf("expected policy reference, got %q", c.PolicyID)
	}
}

func TestSubmit_PolicyNotFound(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	params := validSubmit()
	params.PolicyID = "missing-policy"

	_, err := svc.Submit(context.Background(), params)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmit_RequiresActivePolicy(t *testing.T) {
	for _, status := range []policy.Status{policy.StatusCancelled, policy.StatusExpired} {
		p := activePolicy()
		p.Status = status
		svc, _, _ := newTestService(p)

		_, err := svc.Submit(context.Background(), validSubmit())
		if !domain.IsRuleViolation(err) {
			t.Fatalf("status %s: expected rule violation, got %v", status, err)
		}
	}
}

func TestSubmit_CoverageBoundary(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	params := validSubmit()
	params.Amount = decimal.NewFromInt(50000) // exactly the coverage amount
	if _, err := svc.Submit(context.Background(), params); err != nil {
		t.Fatalf("claim equal to coverage must pass, got %v", err)
	}

	params.Amount = decimal.RequireFromString("50000.01")
	_, err := svc.Submit(context.Background(), params)
	if !domain.IsRuleViolation(err) {
		t.Fatalf("one cent over coverage must fail, got %v", err)
	}
}

func TestSubmit_IncidentDateBoundaries(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	cases := []struct {
		name    string
		date    time.Time
		wantErr bool
	}{
		{"on start date", date(2026, 1, 1), false},
		{"on end date", date(2027, 1, 1), false},
		{"day before start", date(2025, 12, 31), true},
		{"day after end", date(2027, 1, 2), true},
	}

	for _, tc := range cases {
		params := validSubmit()
		params.IncidentDate = tc.date

		_, err := svc.Submit(context.Background(), params)
		if tc.wantErr && !domain.IsRuleViolation(err) {
			t.Errorf("%s: expected rule violation, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: expected success, got %v", tc.name, err)
		}
	}
}

func TestListByPolicy_DistinguishesMissingPolicy(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	claims, err := svc.ListByPolicy(context.Background(), "policy-1")
	if err != nil {
		t.Fatalf("list for policy with no claims: %v", err)
	}
	if len(claims) != 0 {
		t.Fatalf("expected empty list, got %d", len(claims))
	}

	if _, err := svc.ListByPolicy(context.Background(), "missing-policy"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for unknown policy, got %v", err)
	}
}

func TestUpdateStatus_ApproveThenTerminal(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	c, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("seed claim: %v", err)
	}

	approved, err := svc.UpdateStatus(context.Background(), c.ID, StatusApproved, nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", approved.Status)
	}

	// Terminal: no re-adjudication, not even to the same status.
	if _, err := svc.UpdateStatus(context.Background(), c.ID, StatusRejected, ptr("late reason")); !domain.IsRuleViolation(err) {
		t.Fatalf("expected rule violation re-adjudicating, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), c.ID, StatusApproved, nil); !domain.IsRuleViolation(err) {
		t.Fatalf("expected rule violation re-approving, got %v", err)
	}
}

func TestUpdateStatus_RejectRequiresReason(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	c, _ := svc.Submit(context.Background(), validSubmit())

	if _, err := svc.UpdateStatus(context.Background(), c.ID, StatusRejected, nil); !domain.IsRuleViolation(err) {
		t.Fatalf("expected rule violation rejecting without reason, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), c.ID, StatusRejected, ptr("   ")); !domain.IsRuleViolation(err) {
		t.Fatalf("expected rule violation rejecting with blank reason, got %v", err)
	}

	rejected, err := svc.UpdateStatus(context.Background(), c.ID, StatusRejected, ptr("Damage predates the policy"))
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "Damage predates the policy" {
		t.Fatalf("expected stored rejection reason, got %v", rejected.RejectionReason)
	}
}

func TestUpdateStatus_InvalidTargetAndMissingClaim(t *testing.T) {
	svc, _, _ := newTestService(activePolicy())

	c, _ := svc.Submit(context.Background(), validSubmit())

	if _, err := svc.UpdateStatus(context.Background(), c.ID, StatusSubmitted, nil); !domain.IsRuleViolation(err) {
		t.Fatalf("expected rule violation for SUBMITTED target, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "missing-claim", StatusApproved, nil); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func ptr(s string) *string { return &s }

// fakeClaimRepo keeps claims in memory for rule tests.
type fakeClaimRepo struct {
	byID    map[string]Claim
	numbers map[string]struct{}
	nextID  int
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{
		byID:    make(map[string]Claim),
		numbers: make(map[string]struct{}),
		nextID:  1,
	}
}

func (f *fakeClaimRepo) Create(ctx context.Context, tx pgx.Tx, c Claim) (Claim, error) {
	if _, dup := f.numbers[c.Number]; dup {
		return Claim{}, ErrDuplicateNumber
	}
	c.ID = fmt.Sprintf("claim-%d", f.nextID)
	f.nextID++
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = c
	f.numbers[c.Number] = struct{}{}
	return c, nil
}

func (f *fakeClaimRepo) GetByID(ctx context.Context, id string) (Claim, error) {
	c, ok := f.byID[id]
	if !ok {
		return Claim{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeClaimRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Claim, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeClaimRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, rejectionReason *string) (Claim, error) {
	c, ok := f.byID[id]
	if !ok {
		return Claim{}, ErrNotFound
	}
	c.Status = status
	if rejectionReason != nil {
		c.RejectionReason = rejectionReason
	}
	c.UpdatedAt = time.Now().UTC()
	f.byID[id] = c
	return c, nil
}

func (f *fakeClaimRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	_, ok := f.numbers[number]
	return ok, nil
}

func (f *fakeClaimRepo) FindByPolicyID(ctx context.Context, policyID string) ([]Claim, error) {
	list := []Claim{}
	for _, c := range f.byID {
		if c.PolicyID == policyID {
			list = append(list, c)
		}
	}
	return list, nil
}

type fakePolicyGateway struct {
	policies map[string]policy.Policy
}

func (f *fakePolicyGateway) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (policy.Policy, error) {
	p, ok := f.policies[id]
	if !ok {
		return policy.Policy{}, policy.ErrNotFound
	}
	return p, nil
}

func (f *fakePolicyGateway) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := f.policies[id]
	return ok, nil
}

type fakePool struct {
	lastTx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.lastTx = &fakeTx{}
	return f.lastTx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
