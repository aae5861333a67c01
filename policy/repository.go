package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals that the policy does not exist.
	ErrNotFound = errors.New("policy: not found")
	// ErrDuplicateNumber signals a policy number collision on insert.
	ErrDuplicateNumber = errors.New("policy: policy number already exists")
)

const policyColumns = `id, policy_number, customer_name, customer_email, policy_type,
		coverage_amount, premium_amount, start_date, end_date, status, created_at, updated_at`

// Repository defines the data access required by the policy and claim
// services. Storage assigns surrogate ids and timestamps on write.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, p Policy) (Policy, error)
	GetByID(ctx context.Context, id string) (Policy, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Policy, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Policy, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filters Filters) ([]Policy, int, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, p Policy) (Policy, error) {
	const query = `
		INSERT INTO policies (policy_number, customer_name, customer_email, policy_type,
			coverage_amount, premium_amount, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + policyColumns

	row := tx.QueryRow(ctx, query,
		p.Number,
		p.CustomerName,
		p.CustomerEmail,
		p.Type,
		p.CoverageAmount,
		p.PremiumAmount,
		p.StartDate,
		p.EndDate,
		p.Status,
	)

	created, err := scanPolicy(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Policy{}, ErrDuplicateNumber
		}
		return Policy{}, fmt.Errorf("policy: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Policy, error) {
	const query = `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`

	p, err := scanPolicy(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Policy{}, ErrNotFound
		}
		return Policy{}, fmt.Errorf("policy: get by id: %w", err)
	}
	return p, nil
}

func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Policy, error) {
	const query = `SELECT ` + policyColumns + ` FROM policies WHERE id = $1 FOR UPDATE`

	p, err := scanPolicy(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Policy{}, ErrNotFound
		}
		return Policy{}, fmt.Errorf("policy: get for update: %w", err)
	}
	return p, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Policy, error) {
	const query = `
		UPDATE policies
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + policyColumns

	p, err := scanPolicy(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Policy{}, ErrNotFound
		}
		return Policy{}, fmt.Errorf("policy: update status: %w", err)
	}
	return p, nil
}

func (r *PGRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM policies WHERE policy_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("policy: exists by number: %w", err)
	}
	return exists, nil
}

func (r *PGRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM policies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("policy: exists by id: %w", err)
	}
	return exists, nil
}

// List applies the optional filters AND-combined, ordered by creation time
// descending, and returns the requested zero-based page plus the total match
// count across all pages.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Policy, int, error) {
	if filters.Page < 0 {
		filters.Page = 0
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"1=1"}
	args := []any{}

	if filters.CustomerEmail != "" {
		where = append(where, fmt.Sprintf("customer_email = $%d", len(args)+1))
		args = append(args, filters.CustomerEmail)
	}
	if filters.NumberContains != "" {
		where = append(where, fmt.Sprintf("policy_number ILIKE $%d", len(args)+1))
		args = append(args, "%"+filters.NumberContains+"%")
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.Type != "" {
		where = append(where, fmt.Sprintf("policy_type = $%d", len(args)+1))
		args = append(args, filters.Type)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM policies%s ORDER BY created_at DESC, id LIMIT %d OFFSET %d`,
		policyColumns, whereClause, filters.PageSize, filters.Page*filters.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("policy: query list: %w", err)
	}
	defer rows.Close()

	list := []Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("policy: iterate list: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM policies%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("policy: count list: %w", err)
	}

	return list, total, nil
}

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	return p, row.Scan(
		&p.ID,
		&p.Number,
		&p.CustomerName,
		&p.CustomerEmail,
		&p.Type,
		&p.CoverageAmount,
		&p.PremiumAmount,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
