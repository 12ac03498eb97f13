package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"notification-orchestrator/internal/models"
	"notification-orchestrator/internal/store"
)

var _ store.Repository = (*DB)(nil)

const selectColumns = `
    SELECT id, category, title, description, priority, timestamp, case_id, patient_name,
           is_read, is_dismissed, metadata, actions, ai
    FROM notifications`

// Append inserts n at the end of the log.
func (d *DB) Append(ctx context.Context, n models.Notification) error {
	metadata, actions, ai, err := encodeJSON(n)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO notifications (
            id, category, title, description, priority, timestamp, case_id, patient_name,
            is_read, is_dismissed, metadata, actions, ai
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = d.Pool.Exec(ctx, query,
		n.ID, n.Category, n.Title, n.Description, n.Priority, n.Timestamp, n.CaseID,
		n.PatientName, n.IsRead, n.IsDismissed, metadata, actions, ai)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to append notification %s: %w", n.ID, err)
	}
	return nil
}

// Get fetches a single notification by id.
func (d *DB) Get(ctx context.Context, id string) (models.Notification, error) {
	row := d.Pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Notification{}, store.ErrNotFound
		}
		return models.Notification{}, fmt.Errorf("failed to get notification %s: %w", id, err)
	}
	return n, nil
}

// Snapshot reads the whole log in append order.
func (d *DB) Snapshot(ctx context.Context) ([]models.Notification, error) {
	rows, err := d.Pool.Query(ctx, selectColumns+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return notifications, nil
}

func (d *DB) MarkRead(ctx context.Context, id string) error {
	return d.setFlag(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
}

func (d *DB) Dismiss(ctx context.Context, id string) error {
	return d.setFlag(ctx, `UPDATE notifications SET is_dismissed = TRUE WHERE id = $1`, id)
}

func (d *DB) MarkAllRead(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`); err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

func (d *DB) setFlag(ctx context.Context, query, id string) error {
	result, err := d.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	var metadata, actions, ai []byte
	err := row.Scan(
		&n.ID, &n.Category, &n.Title, &n.Description, &n.Priority, &n.Timestamp, &n.CaseID,
		&n.PatientName, &n.IsRead, &n.IsDismissed, &metadata, &actions, &ai,
	)
	if err != nil {
		return models.Notification{}, err
	}
	n.Timestamp = n.Timestamp.UTC()
	if err := decodeJSON(&n, metadata, actions, ai); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

func encodeJSON(n models.Notification) (metadata, actions, ai []byte, err error) {
	if n.Metadata != nil {
		if metadata, err = json.Marshal(n.Metadata); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode metadata for %s: %w", n.ID, err)
		}
	}
	list := n.Actions
	if list == nil {
		list = []models.Action{}
	}
	if actions, err = json.Marshal(list); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode actions for %s: %w", n.ID, err)
	}
	if n.AI != nil {
		if ai, err = json.Marshal(n.AI); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode ai for %s: %w", n.ID, err)
		}
	}
	return metadata, actions, ai, nil
}

// decodeJSON fills the jsonb-backed fields. A metadata column that no longer
// decodes is dropped rather than failing the whole snapshot.
func decodeJSON(n *models.Notification, metadata, actions, ai []byte) error {
	n.Metadata = models.DecodeSignals(metadata)
	n.Actions = []models.Action{}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &n.Actions); err != nil {
			return fmt.Errorf("failed to decode actions for %s: %w", n.ID, err)
		}
	}
	if len(ai) > 0 {
		var insight models.AIInsight
		if err := json.Unmarshal(ai, &insight); err != nil {
			return fmt.Errorf("failed to decode ai for %s: %w", n.ID, err)
		}
		n.AI = &insight
	}
	return nil
}
