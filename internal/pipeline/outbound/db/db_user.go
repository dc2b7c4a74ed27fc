package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, full_name, is_active, last_seen_at, created_at`

func scanUser(row pgx.Row) (entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.LastSeenAt, &u.CreatedAt)
	return u, err
}

// GetUser fetches one user by id.
func (s *DB) GetUser(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUser")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// ListActiveUsers returns every active user.
func (s *DB) ListActiveUsers(ctx context.Context) (_ []entity.User, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveUsers")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_active
		ORDER BY id`)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		u, sErr := scanUser(rows)
		if sErr != nil {
			return nil, s.mapError(sErr)
		}
		users = append(users, u)
	}

	return users, s.mapError(rows.Err())
}

// ListInactiveUsers returns active users whose last app activity is before
// the cutoff (or who never recorded any).
func (s *DB) ListInactiveUsers(ctx context.Context, cutoff time.Time) (_ []entity.User, err error) {
	ctx, span := s.startSpan(ctx, "ListInactiveUsers")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_active AND (last_seen_at IS NULL OR last_seen_at < $1)
		ORDER BY id`, cutoff)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		u, sErr := scanUser(rows)
		if sErr != nil {
			return nil, s.mapError(sErr)
		}
		users = append(users, u)
	}

	return users, s.mapError(rows.Err())
}
