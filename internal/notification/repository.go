package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Repository provides database operations for notifications
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new notification repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save persists a notification
func (r *Repository) Save(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications.notifications (
			id, user_id, title, body, type, case_id, read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.UserID, n.Title, n.Body, n.Type, n.CaseID, n.Read, n.CreatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to save notification")
	}

	return nil
}

// ListForUser returns a user's notifications, newest first
func (r *Repository) ListForUser(ctx context.Context, userID types.ID, unreadOnly bool, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, user_id, title, body, type, case_id, read, created_at
		FROM notifications.notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &n.CaseID, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user
func (r *Repository) CountUnread(ctx context.Context, userID types.ID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications.notifications WHERE user_id = $1 AND NOT read`,
		userID).Scan(&count)

	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}

	return count, nil
}

// MarkRead marks a single notification as read. The user scope prevents
// marking someone else's notification.
func (r *Repository) MarkRead(ctx context.Context, id, userID types.ID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications.notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID)

	if err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("notification", id.String())
	}

	return nil
}

// MarkAllRead marks every unread notification of a user as read
func (r *Repository) MarkAllRead(ctx context.Context, userID types.ID) (int, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications.notifications SET read = TRUE WHERE user_id = $1 AND NOT read`,
		userID)

	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}

	return int(result.RowsAffected()), nil
}
