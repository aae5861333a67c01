package claim

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals that the claim does not exist.
	ErrNotFound = errors.New("claim: not found")
	// ErrDuplicateNumber signals a claim number collision on insert.
	ErrDuplicateNumber = errors.New("claim: claim number already exists")
)

const claimColumns = `id, claim_number, policy_id, description, claim_amount,
		incident_date, status, rejection_reason, created_at, updated_at`

// Repository handles data access for claims.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, c Claim) (Claim, error)
	GetByID(ctx context.Context, id string) (Claim, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Claim, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, rejectionReason *string) (Claim, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	FindByPolicyID(ctx context.Context, policyID string) ([]Claim, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, c Claim) (Claim, error) {
	const query = `
		INSERT INTO claims (claim_number, policy_id, description, claim_amount, incident_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + claimColumns

	row := tx.QueryRow(ctx, query,
		c.Number,
		c.PolicyID,
		c.Description,
		c.Amount,
		c.IncidentDate,
		c.Status,
	)

	created, err := scanClaim(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Claim{}, ErrDuplicateNumber
		}
		return Claim{}, fmt.Errorf("claim: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Claim, error) {
	const query = `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`

	c, err := scanClaim(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, fmt.Errorf("claim: get by id: %w", err)
	}
	return c, nil
}

func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Claim, error) {
	const query = `SELECT ` + claimColumns + ` FROM claims WHERE id = $1 FOR UPDATE`

	c, err := scanClaim(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, fmt.Errorf("claim: get for update: %w", err)
	}
	return c, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, rejectionReason *string) (Claim, error) {
	const query = `
		UPDATE claims
		SET status = $2,
		    rejection_reason = COALESCE($3, rejection_reason),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + claimColumns

	c, err := scanClaim(tx.QueryRow(ctx, query, id, status, rejectionReason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, fmt.Errorf("claim: update status: %w", err)
	}
	return c, nil
}

func (r *PGRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM claims WHERE claim_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("claim: exists by number: %w", err)
	}
	return exists, nil
}

func (r *PGRepository) FindByPolicyID(ctx context.Context, policyID string) ([]Claim, error) {
	const query = `SELECT ` + claimColumns + ` FROM claims WHERE policy_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("claim: find by policy: %w", err)
	}
	defer rows.Close()

	list := []Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim: iterate by policy: %w", err)
	}
	return list, nil
}

func scanClaim(row pgx.Row) (Claim, error) {
	var c Claim
	return c, row.Scan(
		&c.ID,
		&c.Number,
		&c.PolicyID,
		&c.Description,
		&c.Amount,
		&c.IncidentDate,
		&c.Status,
		&c.RejectionReason,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}
