package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/jackc/pgx/v5"
)

const queueColumns = `id, subscription_id, appointments, status, error_message, created_at, updated_at, processed_at`

func scanQueueItem(row pgx.Row) (entity.QueueItem, error) {
	var (
		item     entity.QueueItem
		rawAppts []byte
		status   string
	)
	err := row.Scan(&item.ID, &item.SubscriptionID, &rawAppts, &status,
		&item.ErrorMessage, &item.CreatedAt, &item.UpdatedAt, &item.ProcessedAt)
	if err != nil {
		return entity.QueueItem{}, err
	}

	if err := json.Unmarshal(rawAppts, &item.Appointments); err != nil {
		return entity.QueueItem{}, err
	}
	item.Status = entity.QueueStatusFromString(status)

	return item, nil
}

// CreateQueueItem persists one pending delivery produced by the matcher.
func (s *DB) CreateQueueItem(ctx context.Context, item entity.QueueItem) (err error) {
	ctx, span := s.startSpan(ctx, "CreateQueueItem")
	defer func() { s.endSpan(span, err) }()

	rawAppts, err := json.Marshal(item.Appointments)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_queue
			(id, subscription_id, appointments, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		item.ID, item.SubscriptionID, rawAppts, item.Status.String(), item.CreatedAt)

	return s.mapError(err)
}

// ListPendingQueueItems returns up to limit pending items, oldest first.
func (s *DB) ListPendingQueueItems(ctx context.Context, limit int32) (_ []entity.QueueItem, err error) {
	ctx, span := s.startSpan(ctx, "ListPendingQueueItems")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+queueColumns+`
		FROM notification_queue
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.QueueItem
	for rows.Next() {
		item, sErr := scanQueueItem(rows)
		if sErr != nil {
			return nil, s.mapError(sErr)
		}
		items = append(items, item)
	}

	return items, s.mapError(rows.Err())
}

// UpdateQueueItemStatus moves a queue item between states, recording the
// aggregated error message on failure and the processing timestamp on
// terminal states.
func (s *DB) UpdateQueueItemStatus(ctx context.Context, id int64, status entity.QueueStatus, errMsg *string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateQueueItemStatus")
	defer func() { s.endSpan(span, err) }()

	var processedAt *time.Time
	switch status {
	case entity.QueueStatusSent, entity.QueueStatusSkipped, entity.QueueStatusFailed:
		processedAt = &at
	}

	_, err = s.conn.Exec(ctx, `
		UPDATE notification_queue
		SET status = $2, error_message = $3, updated_at = $4,
		    processed_at = COALESCE($5, processed_at)
		WHERE id = $1`, id, status.String(), errMsg, at, processedAt)

	return s.mapError(err)
}

// HasPendingQueueItem reports whether the subscription already has a
// pending item, so a matcher pass never stacks duplicates for it.
func (s *DB) HasPendingQueueItem(ctx context.Context, subscriptionID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "HasPendingQueueItem")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notification_queue
			WHERE subscription_id = $1 AND status = 'pending'
		)`, subscriptionID).Scan(&exists)

	return exists, s.mapError(err)
}
