package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunchbuddy/app/internal/models"
)

// UpsertStatus writes the (slot, user) status row, replacing any previous
// value. The UNIQUE(date, meal, private, user_id) constraint makes this the
// single-writer-per-key path.
func UpsertStatus(ctx context.Context, q DBTX, slot models.Slot, userID int64, status models.Status, kind string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO daily_status(date, meal, private, user_id, status, kind, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date, meal, private, user_id) DO UPDATE SET
			status = excluded.status,
			kind = excluded.kind,
			updated_at = CURRENT_TIMESTAMP`,
		slot.Date, slot.Meal, slot.Private, userID, status, kind)
	return err
}

// GetStatus returns the status row for (slot, user), defaulting to NotSet
// when no row exists.
func GetStatus(ctx context.Context, q DBTX, slot models.Slot, userID int64) (models.Status, string, error) {
	var status models.Status
	var kind string
	err := q.QueryRowContext(ctx, `
		SELECT status, kind FROM daily_status
		WHERE date = ? AND meal = ? AND private = ? AND user_id = ?`,
		slot.Date, slot.Meal, slot.Private, userID).Scan(&status, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StatusNotSet, models.KindNone, nil
	}
	if err != nil {
		return models.StatusNotSet, models.KindNone, err
	}
	return status, kind, nil
}

// DeleteStatus removes the (slot, user) row, reverting the user to NotSet.
func DeleteStatus(ctx context.Context, q DBTX, slot models.Slot, userID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM daily_status
		WHERE date = ? AND meal = ? AND private = ? AND user_id = ?`,
		slot.Date, slot.Meal, slot.Private, userID)
	return err
}

// ListStatuses returns every user with their raw status for the slot,
// NotSet for users without a row. Defensive repair of inconsistent rows is
// the engine's concern, not this query's.
func ListStatuses(ctx context.Context, q DBTX, slot models.Slot) ([]*models.BoardEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.name, u.english_name, u.role, u.telegram_chat_id,
		       COALESCE(ds.status, 'not_set'), COALESCE(ds.kind, '')
		FROM users u
		LEFT JOIN daily_status ds
			ON ds.user_id = u.id AND ds.date = ? AND ds.meal = ? AND ds.private = ?
		ORDER BY u.name`,
		slot.Date, slot.Meal, slot.Private)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BoardEntry
	for rows.Next() {
		e := &models.BoardEntry{}
		if err := rows.Scan(&e.UserID, &e.Name, &e.EnglishName, &e.Role,
			&e.TelegramChatID, &e.Status, &e.Kind); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
