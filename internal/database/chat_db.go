package database

import (
	"context"

	"github.com/lunchbuddy/app/internal/models"
)

// InsertChatMessage appends one line to the (slot, host) group chat.
func InsertChatMessage(ctx context.Context, q DBTX, slot models.Slot, hostID, userID int64, userName, message string) (*models.ChatMessage, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO group_chat(date, meal, private, host_id, user_id, user_name, message)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		slot.Date, slot.Meal, slot.Private, hostID, userID, userName, message)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{}
	err = q.QueryRowContext(ctx, `
		SELECT id, date, meal, private, host_id, user_id, user_name, message, sent_at
		FROM group_chat WHERE id = ?`, id).
		Scan(&msg.ID, &msg.Slot.Date, &msg.Slot.Meal, &msg.Slot.Private,
			&msg.HostID, &msg.UserID, &msg.UserName, &msg.Message, &msg.SentAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListChatMessages returns the newest `limit` lines of the (slot, host)
// chat in chronological order. limit <= 0 means no limit.
func ListChatMessages(ctx context.Context, q DBTX, slot models.Slot, hostID int64, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, date, meal, private, host_id, user_id, user_name, message, sent_at
		FROM (
			SELECT * FROM group_chat
			WHERE date = ? AND meal = ? AND private = ? AND host_id = ?
			ORDER BY sent_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY sent_at ASC, id ASC`
	if limit <= 0 {
		limit = -1 // sqlite: negative LIMIT means unlimited
	}

	rows, err := q.QueryContext(ctx, query, slot.Date, slot.Meal, slot.Private, hostID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.Slot.Date, &msg.Slot.Meal, &msg.Slot.Private,
			&msg.HostID, &msg.UserID, &msg.UserName, &msg.Message, &msg.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// ClearChat deletes the whole transcript of the (slot, host) chat.
func ClearChat(ctx context.Context, q DBTX, slot models.Slot, hostID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM group_chat
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID)
	return err
}

// ReassignChatHost re-points the transcript to a new host on delegation.
func ReassignChatHost(ctx context.Context, q DBTX, slot models.Slot, oldHostID, newHostID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE group_chat SET host_id = ?
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		newHostID, slot.Date, slot.Meal, slot.Private, oldHostID)
	return err
}
