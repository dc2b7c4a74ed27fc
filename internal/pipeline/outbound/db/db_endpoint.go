package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/jackc/pgx/v5"
)

const endpointColumns = `id, user_id, endpoint, p256dh, auth, device_type, is_active,
	consecutive_failures, last_delivery_status, last_failure_reason, last_used_at, created_at`

func scanEndpoint(row pgx.Row) (entity.PushEndpoint, error) {
	var (
		ep     entity.PushEndpoint
		status string
	)
	err := row.Scan(&ep.ID, &ep.UserID, &ep.Endpoint, &ep.P256dh, &ep.Auth,
		&ep.DeviceType, &ep.IsActive, &ep.ConsecutiveFailures, &status,
		&ep.LastFailureReason, &ep.LastUsedAt, &ep.CreatedAt)
	if err != nil {
		return entity.PushEndpoint{}, err
	}

	ep.LastDeliveryStatus = entity.DeliveryStatusFromString(status)

	return ep, nil
}

// ListActiveEndpoints returns the user's active push registrations.
func (s *DB) ListActiveEndpoints(ctx context.Context, userID int64) (_ []entity.PushEndpoint, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveEndpoints")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+endpointColumns+`
		FROM push_endpoints
		WHERE user_id = $1 AND is_active
		ORDER BY id`, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var eps []entity.PushEndpoint
	for rows.Next() {
		ep, sErr := scanEndpoint(rows)
		if sErr != nil {
			return nil, s.mapError(sErr)
		}
		eps = append(eps, ep)
	}

	return eps, s.mapError(rows.Err())
}

// UpsertEndpoint registers a push endpoint, reactivating and re-keying it
// when the same endpoint URL is registered again.
func (s *DB) UpsertEndpoint(ctx context.Context, ep entity.PushEndpoint) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertEndpoint")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO push_endpoints
			(id, user_id, endpoint, p256dh, auth, device_type, is_active,
			 consecutive_failures, last_delivery_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, 0, 'pending', $7)
		ON CONFLICT (endpoint)
		DO UPDATE SET user_id = EXCLUDED.user_id,
		              p256dh = EXCLUDED.p256dh,
		              auth = EXCLUDED.auth,
		              device_type = EXCLUDED.device_type,
		              is_active = TRUE,
		              consecutive_failures = 0,
		              last_delivery_status = 'pending',
		              last_failure_reason = NULL`,
		ep.ID, ep.UserID, ep.Endpoint, ep.P256dh, ep.Auth, ep.DeviceType, ep.CreatedAt)

	return s.mapError(err)
}

// DeleteEndpointByURL removes a registration on explicit unsubscribe.
func (s *DB) DeleteEndpointByURL(ctx context.Context, endpoint string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteEndpointByURL")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM push_endpoints WHERE endpoint = $1`, endpoint)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.mapError(pgx.ErrNoRows)
	}

	return nil
}

// RecordEndpointSuccess resets the failure counter after a delivered push.
func (s *DB) RecordEndpointSuccess(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "RecordEndpointSuccess")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE push_endpoints
		SET consecutive_failures = 0,
		    last_delivery_status = 'success',
		    last_failure_reason = NULL,
		    last_used_at = $2
		WHERE id = $1`, id, at)

	return s.mapError(err)
}

// RecordEndpointFailure stores the failure outcome, optionally deactivating
// the endpoint, and returns nothing callers need beyond the error.
func (s *DB) RecordEndpointFailure(ctx context.Context, id int64, failures int32, reason string, deactivate bool, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "RecordEndpointFailure")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE push_endpoints
		SET consecutive_failures = $2,
		    last_delivery_status = 'failed',
		    last_failure_reason = $3,
		    is_active = NOT $4,
		    last_used_at = $5
		WHERE id = $1`, id, failures, reason, deactivate, at)

	return s.mapError(err)
}
