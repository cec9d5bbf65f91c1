package engine

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

// PostChatMessage appends a message to the group's chat log. Only members
// may post.
func (e *Engine) PostChatMessage(ctx context.Context, userID, hostID int64, slot models.Slot, message string) (*models.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrInvalidArgument
	}

	var posted *models.ChatMessage
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := database.GetGroupByHost(ctx, tx, slot, hostID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoSuchGroup
			}
			return err
		}
		member, err := e.isMemberTx(ctx, tx, slot, hostID, userID)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotAMember
		}

		user, err := database.GetUserByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		posted, err = database.InsertChatMessage(ctx, tx, slot, hostID, userID, user.DisplayName(), message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// ChatMessages returns the group's chat log, oldest first, again member-only.
func (e *Engine) ChatMessages(ctx context.Context, userID, hostID int64, slot models.Slot, limit int) ([]*models.ChatMessage, error) {
	var msgs []*models.ChatMessage
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		member, err := e.isMemberTx(ctx, tx, slot, hostID, userID)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotAMember
		}
		msgs, err = database.ListChatMessages(ctx, tx, slot, hostID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
