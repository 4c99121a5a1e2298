package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Repository defines persistence operations for the auth module. Session rows
// are an audit trail of issued tokens, keyed by JTI; token validity itself is
// stateless.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	CreateSession(ctx context.Context, jti string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, jti string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `u.id, u.email, u.full_name, u.password_hash, r.name, u.is_active, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role *string
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if role != nil {
		user.Role = *role
	}
	return &user, nil
}

// FindByEmail fetches a user with its role name by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		   FROM users u LEFT JOIN roles r ON r.id = u.role_id
		  WHERE u.email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user with its role name by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		   FROM users u LEFT JOIN roles r ON r.id = u.role_id
		  WHERE u.id = $1`, id)
	return scanUser(row)
}

// textValue encodes a request metadata string for the NOT NULL session
// columns. An absent User-Agent header arrives as "" and must be stored as
// the empty string, never NULL.
func textValue(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

// CreateSession records an issued token for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, jti string, userID int64, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		jti, userID,
		pgtype.Timestamptz{Time: now, Valid: true},
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		textValue(ip),
		textValue(ua),
	)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, jti string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, jti)
	return err
}

// DeleteExpiredSessions removes audit rows whose token expired before the
// cutoff. Used by the background purge job.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`,
		pgtype.Timestamptz{Time: before.UTC(), Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
