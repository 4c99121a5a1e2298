package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/platform/db"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// RepositoryPort defines data access methods for events.
type RepositoryPort interface {
	Create(ctx context.Context, event Event) (*Event, error)
	FindByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, limit, offset int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, event Event) (*Event, error)
	AssignSupport(ctx context.Context, eventID, userID int64) error
	ContractInfo(ctx context.Context, contractID int64) (*ContractInfo, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectEvent = `
SELECT id, contract_id, support_contact_id, event_date, location, attendees, notes, created_at, updated_at FROM events`

func scanEvent(row pgx.Row) (*Event, error) {
	var event Event
	if err := row.Scan(&event.ID, &event.ContractID, &event.SupportContactID, &event.EventDate,
		&event.Location, &event.Attendees, &event.Notes, &event.CreatedAt, &event.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Create inserts an event inside one transaction that re-checks the signed
// status of the contract, so a concurrent cancellation cannot slip an event
// under an unsigned contract.
func (r *Repository) Create(ctx context.Context, event Event) (*Event, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx,
			`SELECT status FROM contracts WHERE id = $1 FOR SHARE`, event.ContractID).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if status != "signed" {
			return ErrContractNotSigned
		}
		return tx.QueryRow(ctx,
			`INSERT INTO events (contract_id, support_contact_id, event_date, location, attendees, notes)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at, updated_at`,
			event.ContractID, event.SupportContactID, event.EventDate, event.Location, event.Attendees, event.Notes,
		).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByID fetches one event.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, selectEvent+` WHERE id = $1`, id))
}

// List returns events ordered by id with limit/offset paging.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Event, error) {
	rows, err := r.pool.Query(ctx, selectEvent+` ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.ContractID, &event.SupportContactID, &event.EventDate,
			&event.Location, &event.Attendees, &event.Notes, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Count returns the total number of events.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Update persists event detail changes in one statement.
func (r *Repository) Update(ctx context.Context, event Event) (*Event, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events
		    SET event_date = $2, location = $3, attendees = $4, notes = $5, updated_at = NOW()
		  WHERE id = $1`,
		event.ID, event.EventDate, event.Location, event.Attendees, event.Notes)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, event.ID)
}

// AssignSupport swaps the support contact in one atomic statement.
func (r *Repository) AssignSupport(ctx context.Context, eventID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET support_contact_id = $2, updated_at = NOW() WHERE id = $1`, eventID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ContractInfo returns the contract state the event rules depend on.
func (r *Repository) ContractInfo(ctx context.Context, contractID int64) (*ContractInfo, error) {
	var info ContractInfo
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, sales_contact_id FROM contracts WHERE id = $1`, contractID).
		Scan(&info.ID, &info.Status, &info.SalesContactID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &info, nil
}

var _ RepositoryPort = (*Repository)(nil)
