package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Repository provides database operations for user accounts
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new user repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts or refreshes a user keyed by the provider's external id.
// Role is only set on first insert; role changes go through UpdateRole so a
// webhook replay cannot demote an admin.
func (r *Repository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO identity.users (id, external_id, email, name, role, phone, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
		ON CONFLICT (external_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			deleted = FALSE,
			updated_at = EXCLUDED.updated_at`

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.ExternalID, u.Email, u.Name, u.Role, u.Phone, u.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to upsert user")
	}

	return nil
}

// GetByID retrieves a user by internal ID
func (r *Repository) GetByID(ctx context.Context, id types.ID) (*User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByExternalID retrieves a user by the identity provider's id
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.getOne(ctx, `WHERE external_id = $1`, externalID)
}

func (r *Repository) getOne(ctx context.Context, where string, arg interface{}) (*User, error) {
	query := fmt.Sprintf(`
		SELECT id, external_id, email, name, role, COALESCE(phone, ''), deleted,
			created_at, updated_at
		FROM identity.users
		%s`, where)

	u := &User{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.Deleted,
		&u.CreatedAt, &u.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", fmt.Sprintf("%v", arg))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return u, nil
}

// UpdateRole changes a user's role, keyed by external id
func (r *Repository) UpdateRole(ctx context.Context, externalID, role string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE identity.users SET role = $2, updated_at = NOW() WHERE external_id = $1 AND NOT deleted`,
		externalID, role)

	if err != nil {
		return errors.Wrap(err, "failed to update user role")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user", externalID)
	}

	return nil
}

// SoftDelete marks a user as deleted without dropping case history
func (r *Repository) SoftDelete(ctx context.Context, externalID string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE identity.users SET deleted = TRUE, updated_at = NOW() WHERE external_id = $1`,
		externalID)

	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user", externalID)
	}

	return nil
}

// List lists users with optional filters
func (r *Repository) List(ctx context.Context, filter ListUsersFilter) ([]User, int, error) {
	conditions := []string{"NOT deleted"}
	var args []interface{}
	argNum := 1

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argNum))
		args = append(args, filter.Role)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM identity.users %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, external_id, email, name, role, COALESCE(phone, ''), deleted,
			created_at, updated_at
		FROM identity.users
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.Deleted,
			&u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}

	return users, total, nil
}
