package engine

import (
	"context"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

// RequestFriend records a pending friend request. Repeating an existing
// request is a no-op.
func (e *Engine) RequestFriend(ctx context.Context, requesterID, targetID int64) error {
	if requesterID == targetID {
		return ErrInvalidArgument
	}
	return database.UpsertFriendRequest(ctx, e.db, requesterID, targetID)
}

// AcceptFriend accepts the pending request from requesterID addressed to
// the actor. There being no such request is ErrNotPending.
func (e *Engine) AcceptFriend(ctx context.Context, actorID, requesterID int64) error {
	accepted, err := database.AcceptFriendRequest(ctx, e.db, requesterID, actorID)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrNotPending
	}
	return nil
}

// FriendIDs returns the ids of the user's accepted friends, either
// direction.
func (e *Engine) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	return database.ListFriendIDs(ctx, e.db, userID)
}

// AreFriends reports whether an accepted friendship links the two users.
func (e *Engine) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	return database.AreFriends(ctx, e.db, a, b)
}

// IncomingFriendRequests lists pending requests addressed to the user.
func (e *Engine) IncomingFriendRequests(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	return database.ListIncomingFriendRequests(ctx, e.db, userID)
}
