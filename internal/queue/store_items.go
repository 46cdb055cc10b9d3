package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Enqueue inserts a planned session if its key is not already present. The
// returned bool reports whether a new row was created; when the key exists
// the stored item is returned unchanged so reruns of discovery are idempotent.
func (s *Store) Enqueue(ctx context.Context, item *Item) (*Item, bool, error) {
	if item == nil {
		return nil, false, errors.New("item is nil")
	}
	if item.SessionKey == "" {
		return nil, false, errors.New("session key is empty")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            session_key, experiment, experimental_group, treatment, subject_id,
            start_date, start_time, behavior_path, photometry_path, plan_json,
            status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(session_key) DO NOTHING`,
		item.SessionKey,
		item.Experiment,
		nullableString(item.Group),
		nullableString(item.Treatment),
		nullableString(item.SubjectID),
		nullableString(item.StartDate),
		nullableString(item.StartTime),
		nullableString(item.BehaviorPath),
		nullableString(item.PhotometryPath),
		nullableString(item.PlanJSON),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	stored, err := s.FindBySessionKey(ctx, item.SessionKey)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("session %q missing after insert", item.SessionKey)
	}
	return stored, affected > 0, nil
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindBySessionKey returns the item matching a session key.
func (s *Store) FindBySessionKey(ctx context.Context, key string) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE session_key = ? LIMIT 1`,
		key,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by session key: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()

	if _, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET experiment = ?, experimental_group = ?, treatment = ?, subject_id = ?,
             start_date = ?, start_time = ?, behavior_path = ?, photometry_path = ?,
             plan_json = ?, status = ?, output_path = ?, error_message = ?,
             error_file = ?, updated_at = ?, progress_stage = ?, progress_message = ?,
             last_heartbeat = ?
         WHERE id = ?`,
		item.Experiment,
		nullableString(item.Group),
		nullableString(item.Treatment),
		nullableString(item.SubjectID),
		nullableString(item.StartDate),
		nullableString(item.StartTime),
		nullableString(item.BehaviorPath),
		nullableString(item.PhotometryPath),
		nullableString(item.PlanJSON),
		item.Status,
		nullableString(item.OutputPath),
		nullableString(item.ErrorMessage),
		nullableString(item.ErrorFile),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(item.ProgressStage),
		nullableString(item.ProgressMessage),
		nullableTime(item.LastHeartbeat),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ClaimNext atomically promotes the oldest pending item to converting and
// returns it. A nil item with nil error means the queue has no pending work.
func (s *Store) ClaimNext(ctx context.Context) (*Item, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var claimed *Item
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`UPDATE queue_items SET status = ?, updated_at = ?, last_heartbeat = ?
             WHERE id = (
                 SELECT id FROM queue_items WHERE status = ? ORDER BY created_at, id LIMIT 1
             )
             RETURNING `+itemColumns,
			StatusConverting,
			now,
			now,
			StatusPending,
		)
		item, scanErr := scanItem(row)
		if scanErr != nil {
			return scanErr
		}
		claimed = item
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next: %w", err)
	}
	return claimed, nil
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY created_at, id`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
