package database

import (
	"context"

	"github.com/lunchbuddy/app/internal/models"
)

// UpsertFriendRequest records a pending friendship request, reviving a
// previous row for the same directed pair if one exists.
func UpsertFriendRequest(ctx context.Context, q DBTX, requesterID, targetID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO friendships(requester_id, target_id, status)
		VALUES(?, ?, 'pending')
		ON CONFLICT(requester_id, target_id) DO NOTHING`,
		requesterID, targetID)
	return err
}

// AcceptFriendRequest marks the directed request accepted. Reports whether
// a pending row existed.
func AcceptFriendRequest(ctx context.Context, q DBTX, requesterID, targetID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE friendships SET status = 'accepted'
		WHERE requester_id = ? AND target_id = ? AND status = 'pending'`,
		requesterID, targetID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFriendIDs returns the ids of users with an accepted friendship with
// userID, in either direction.
func ListFriendIDs(ctx context.Context, q DBTX, userID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT CASE WHEN requester_id = ? THEN target_id ELSE requester_id END
		FROM friendships
		WHERE status = 'accepted' AND (requester_id = ? OR target_id = ?)`,
		userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AreFriends reports whether an accepted friendship exists between a and b.
func AreFriends(ctx context.Context, q DBTX, a, b int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE status = 'accepted'
		  AND ((requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?))`,
		a, b, b, a).Scan(&n)
	return n > 0, err
}

// ListIncomingFriendRequests returns pending requests addressed to the user.
func ListIncomingFriendRequests(ctx context.Context, q DBTX, userID int64) ([]*models.Friendship, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, requester_id, target_id, status, created_at
		FROM friendships
		WHERE target_id = ? AND status = 'pending'
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.Friendship
	for rows.Next() {
		f := &models.Friendship{}
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.TargetID, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, f)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}
