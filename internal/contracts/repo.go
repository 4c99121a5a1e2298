package contracts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// RepositoryPort defines data access methods for contracts.
type RepositoryPort interface {
	Create(ctx context.Context, contract Contract) (*Contract, error)
	FindByID(ctx context.Context, id int64) (*Contract, error)
	List(ctx context.Context, limit, offset int) ([]Contract, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, contract Contract) (*Contract, error)
	MarkSigned(ctx context.Context, id int64, signedAt time.Time) (*Contract, error)
	ClientSalesContact(ctx context.Context, clientID int64) (*int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectContract = `
SELECT id, client_id, sales_contact_id, total_amount, amount_due, status, signed_at, created_at, updated_at FROM contracts`

func scanContract(row pgx.Row) (*Contract, error) {
	var contract Contract
	if err := row.Scan(&contract.ID, &contract.ClientID, &contract.SalesContactID,
		&contract.TotalAmount, &contract.AmountDue, &contract.Status, &contract.SignedAt,
		&contract.CreatedAt, &contract.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// Create inserts a new pending contract.
func (r *Repository) Create(ctx context.Context, contract Contract) (*Contract, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO contracts (client_id, sales_contact_id, total_amount, amount_due, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		contract.ClientID, contract.SalesContactID, contract.TotalAmount, contract.AmountDue, StatusPending)
	if err := row.Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt); err != nil {
		return nil, err
	}
	contract.Status = StatusPending
	return &contract, nil
}

// FindByID fetches one contract.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Contract, error) {
	return scanContract(r.pool.QueryRow(ctx, selectContract+` WHERE id = $1`, id))
}

// List returns contracts ordered by id with limit/offset paging.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Contract, error) {
	rows, err := r.pool.Query(ctx, selectContract+` ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contract
	for rows.Next() {
		var contract Contract
		if err := rows.Scan(&contract.ID, &contract.ClientID, &contract.SalesContactID,
			&contract.TotalAmount, &contract.AmountDue, &contract.Status, &contract.SignedAt,
			&contract.CreatedAt, &contract.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, contract)
	}
	return out, rows.Err()
}

// Count returns the total number of contracts.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Update persists amount changes in one statement.
func (r *Repository) Update(ctx context.Context, contract Contract) (*Contract, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contracts SET total_amount = $2, amount_due = $3, updated_at = NOW() WHERE id = $1`,
		contract.ID, contract.TotalAmount, contract.AmountDue)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, contract.ID)
}

// MarkSigned flips a pending contract to signed in one atomic statement.
// Signing a contract that is not pending reports not found so the caller
// cannot re-sign or resurrect a canceled contract.
func (r *Repository) MarkSigned(ctx context.Context, id int64, signedAt time.Time) (*Contract, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contracts SET status = $2, signed_at = $3, updated_at = NOW()
		  WHERE id = $1 AND status = $4`,
		id, StatusSigned, signedAt.UTC(), StatusPending)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// ClientSalesContact returns the sales contact of the contract's client.
func (r *Repository) ClientSalesContact(ctx context.Context, clientID int64) (*int64, error) {
	var salesContactID *int64
	err := r.pool.QueryRow(ctx, `SELECT sales_contact_id FROM clients WHERE id = $1`, clientID).Scan(&salesContactID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return salesContactID, nil
}

var _ RepositoryPort = (*Repository)(nil)
