package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/platform/crypto"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// RepositoryPort defines data access methods for client records.
type RepositoryPort interface {
	Create(ctx context.Context, client Client) (*Client, error)
	FindByID(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, limit, offset int) ([]Client, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, client Client) (*Client, error)
}

// Repository provides PostgreSQL backed persistence. Contact fields pass
// through the injected cipher on the way in and out; only guard-approved
// service paths reach this type.
type Repository struct {
	pool   *pgxpool.Pool
	cipher crypto.FieldCipher
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, cipher crypto.FieldCipher) *Repository {
	return &Repository{pool: pool, cipher: cipher}
}

func (r *Repository) seal(c *Client) (email, phone, company string, err error) {
	if email, err = r.cipher.Encrypt(c.Email); err != nil {
		return "", "", "", fmt.Errorf("clients: seal email: %w", err)
	}
	if phone, err = r.cipher.Encrypt(c.Phone); err != nil {
		return "", "", "", fmt.Errorf("clients: seal phone: %w", err)
	}
	if company, err = r.cipher.Encrypt(c.Company); err != nil {
		return "", "", "", fmt.Errorf("clients: seal company: %w", err)
	}
	return email, phone, company, nil
}

func (r *Repository) open(c *Client) error {
	var err error
	if c.Email, err = r.cipher.Decrypt(c.Email); err != nil {
		return fmt.Errorf("clients: open email: %w", err)
	}
	if c.Phone, err = r.cipher.Decrypt(c.Phone); err != nil {
		return fmt.Errorf("clients: open phone: %w", err)
	}
	if c.Company, err = r.cipher.Decrypt(c.Company); err != nil {
		return fmt.Errorf("clients: open company: %w", err)
	}
	return nil
}

func (r *Repository) scanClient(row pgx.Row) (*Client, error) {
	var client Client
	if err := row.Scan(&client.ID, &client.Email, &client.FullName, &client.Company, &client.Phone,
		&client.SalesContactID, &client.CreatedAt, &client.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.open(&client); err != nil {
		return nil, err
	}
	return &client, nil
}

const selectClient = `
SELECT id, email, full_name, company, phone, sales_contact_id, created_at, updated_at FROM clients`

// Create inserts a new client record.
func (r *Repository) Create(ctx context.Context, client Client) (*Client, error) {
	email, phone, company, err := r.seal(&client)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO clients (email, full_name, company, phone, sales_contact_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		email, client.FullName, company, phone, client.SalesContactID)
	// Client email carries no UNIQUE constraint: the column stores
	// per-call GCM ciphertext, so equal plaintexts never collide and
	// uniqueness cannot be enforced at the storage layer.
	if err := row.Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt); err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByID fetches one client.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Client, error) {
	return r.scanClient(r.pool.QueryRow(ctx, selectClient+` WHERE id = $1`, id))
}

// List returns clients ordered by id with limit/offset paging.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Client, error) {
	rows, err := r.pool.Query(ctx, selectClient+` ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		var client Client
		if err := rows.Scan(&client.ID, &client.Email, &client.FullName, &client.Company, &client.Phone,
			&client.SalesContactID, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}
		if err := r.open(&client); err != nil {
			return nil, err
		}
		out = append(out, client)
	}
	return out, rows.Err()
}

// Count returns the total number of clients.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Update persists the full record in one statement.
func (r *Repository) Update(ctx context.Context, client Client) (*Client, error) {
	email, phone, company, err := r.seal(&client)
	if err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients
		    SET email = $2, full_name = $3, company = $4, phone = $5, sales_contact_id = $6, updated_at = NOW()
		  WHERE id = $1`,
		client.ID, email, client.FullName, company, phone, client.SalesContactID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, client.ID)
}

var _ RepositoryPort = (*Repository)(nil)
