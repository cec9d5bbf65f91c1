package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunchbuddy/app/internal/models"
)

const inviteColumns = `id, date, meal, private, from_user_id, to_user_id, group_host_id, status, kind, created_at, updated_at`

func scanInvite(scan func(dest ...any) error) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := scan(&inv.ID, &inv.Slot.Date, &inv.Slot.Meal, &inv.Slot.Private,
		&inv.FromUserID, &inv.ToUserID, &inv.GroupHostID, &inv.Status, &inv.Kind,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateOrReviveInvite inserts a pending invitation, or revives the existing
// row for the same (slot, from, to) pair back to pending. One row per pair
// per day is the convention the UNIQUE index enforces.
func CreateOrReviveInvite(ctx context.Context, q DBTX, slot models.Slot, fromID, toID int64, groupHostID sql.NullInt64, kind string) (*models.Invitation, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO invitations(date, meal, private, from_user_id, to_user_id, group_host_id, status, kind)
		VALUES(?, ?, ?, ?, ?, ?, 'pending', ?)
		ON CONFLICT(date, meal, private, from_user_id, to_user_id) DO UPDATE SET
			status = 'pending',
			group_host_id = excluded.group_host_id,
			kind = excluded.kind,
			updated_at = CURRENT_TIMESTAMP`,
		slot.Date, slot.Meal, slot.Private, fromID, toID, groupHostID, kind)
	if err != nil {
		return nil, err
	}
	return GetInviteBetween(ctx, q, slot, fromID, toID)
}

// GetInvite retrieves an invitation by id.
func GetInvite(ctx context.Context, q DBTX, id int64) (*models.Invitation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM invitations WHERE id = ?`, id)
	return scanInvite(row.Scan)
}

// GetInviteBetween retrieves the (at most one) invitation row for the
// ordered pair on the slot.
func GetInviteBetween(ctx context.Context, q DBTX, slot models.Slot, fromID, toID int64) (*models.Invitation, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+inviteColumns+` FROM invitations
		WHERE date = ? AND meal = ? AND private = ? AND from_user_id = ? AND to_user_id = ?`,
		slot.Date, slot.Meal, slot.Private, fromID, toID)
	return scanInvite(row.Scan)
}

// HasPendingBetween reports whether a pending invitation exists for the
// ordered pair on the slot.
func HasPendingBetween(ctx context.Context, q DBTX, slot models.Slot, fromID, toID int64) (bool, error) {
	inv, err := GetInviteBetween(ctx, q, slot, fromID, toID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return inv.Status == models.InviteStatusPending, nil
}

// UpdateInviteStatus moves an invitation to the given lifecycle status.
func UpdateInviteStatus(ctx context.Context, q DBTX, id int64, status string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE invitations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	return err
}

// CancelPendingTouching bulk-cancels every pending invitation the user is a
// party to, except rows where the user is the group host of their own
// recruiting invite (those survive the sweep).
func CancelPendingTouching(ctx context.Context, q DBTX, slot models.Slot, userID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE invitations SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		WHERE date = ? AND meal = ? AND private = ? AND status = 'pending'
		  AND (from_user_id = ? OR to_user_id = ?)
		  AND (group_host_id IS NULL OR group_host_id != ?)`,
		slot.Date, slot.Meal, slot.Private, userID, userID, userID)
	return err
}

// CancelAcceptedTouching cancels every accepted invitation the user is a
// party to for the slot.
func CancelAcceptedTouching(ctx context.Context, q DBTX, slot models.Slot, userID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE invitations SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		WHERE date = ? AND meal = ? AND private = ? AND status = 'accepted'
		  AND (from_user_id = ? OR to_user_id = ?)`,
		slot.Date, slot.Meal, slot.Private, userID, userID)
	return err
}

// HasPendingOutgoing reports whether the user still has a live invite they
// sent for the slot.
func HasPendingOutgoing(ctx context.Context, q DBTX, slot models.Slot, userID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invitations
		WHERE date = ? AND meal = ? AND private = ? AND from_user_id = ? AND status = 'pending'`,
		slot.Date, slot.Meal, slot.Private, userID).Scan(&n)
	return n > 0, err
}

// HasAcceptedFor reports whether any accepted invitation touches the user
// for the slot. Booked status is only trusted when this holds.
func HasAcceptedFor(ctx context.Context, q DBTX, slot models.Slot, userID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invitations
		WHERE date = ? AND meal = ? AND private = ? AND status = 'accepted'
		  AND (from_user_id = ? OR to_user_id = ?)`,
		slot.Date, slot.Meal, slot.Private, userID, userID).Scan(&n)
	return n > 0, err
}

// UsersWithAcceptedInvites returns the set of users touched by an accepted
// invitation on the slot. Feeds the board's read-time consistency repair.
func UsersWithAcceptedInvites(ctx context.Context, q DBTX, slot models.Slot) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT from_user_id, to_user_id FROM invitations
		WHERE date = ? AND meal = ? AND private = ? AND status = 'accepted'`,
		slot.Date, slot.Meal, slot.Private)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[int64]bool)
	for rows.Next() {
		var from, to int64
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		users[from] = true
		users[to] = true
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// AcceptedPartners returns the counterparties of the user's accepted 1:1
// invitations (join requests excluded) for the slot.
func AcceptedPartners(ctx context.Context, q DBTX, slot models.Slot, userID int64) ([]*models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prefixedUserColumns("u")+`
		FROM invitations i
		JOIN users u ON u.id = CASE WHEN i.from_user_id = ? THEN i.to_user_id ELSE i.from_user_id END
		WHERE i.date = ? AND i.meal = ? AND i.private = ? AND i.status = 'accepted'
		  AND i.group_host_id IS NULL
		  AND (i.from_user_id = ? OR i.to_user_id = ?)
		ORDER BY i.updated_at DESC`,
		userID, slot.Date, slot.Meal, slot.Private, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []*models.User
	seen := make(map[int64]bool)
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.EmployeeID, &u.Name, &u.EnglishName, &u.Team,
			&u.Role, &u.Years, &u.TelegramChatID, &u.PINHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		if !seen[u.ID] {
			seen[u.ID] = true
			partners = append(partners, u)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return partners, nil
}

// LatestAcceptedGroupHost returns the host of the most recently accepted
// join request touching the user, or false when none exists. Used to repair
// Booked users whose membership rows went missing.
func LatestAcceptedGroupHost(ctx context.Context, q DBTX, slot models.Slot, userID int64) (int64, bool, error) {
	var host int64
	err := q.QueryRowContext(ctx, `
		SELECT group_host_id FROM invitations
		WHERE date = ? AND meal = ? AND private = ? AND status = 'accepted'
		  AND group_host_id IS NOT NULL
		  AND (from_user_id = ? OR to_user_id = ?)
		ORDER BY updated_at DESC LIMIT 1`,
		slot.Date, slot.Meal, slot.Private, userID, userID).Scan(&host)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return host, true, nil
}

// ListIncomingInvites returns pending invitations sent to the user, newest
// first, with the sender's display fields.
func ListIncomingInvites(ctx context.Context, q DBTX, slot models.Slot, userID int64) ([]*models.InviteView, error) {
	return listInvites(ctx, q, slot, userID, true)
}

// ListOutgoingInvites returns pending invitations sent by the user, newest
// first, with the recipient's display fields.
func ListOutgoingInvites(ctx context.Context, q DBTX, slot models.Slot, userID int64) ([]*models.InviteView, error) {
	return listInvites(ctx, q, slot, userID, false)
}

func listInvites(ctx context.Context, q DBTX, slot models.Slot, userID int64, incoming bool) ([]*models.InviteView, error) {
	filter, other := "i.to_user_id", "i.from_user_id"
	if !incoming {
		filter, other = "i.from_user_id", "i.to_user_id"
	}
	rows, err := q.QueryContext(ctx, `
		SELECT i.id, i.date, i.meal, i.private, i.from_user_id, i.to_user_id,
		       i.group_host_id, i.status, i.kind, i.created_at, i.updated_at,
		       u.id, u.name, u.english_name
		FROM invitations i
		JOIN users u ON u.id = `+other+`
		WHERE i.date = ? AND i.meal = ? AND i.private = ? AND i.status = 'pending'
		  AND `+filter+` = ?
		ORDER BY i.updated_at DESC`,
		slot.Date, slot.Meal, slot.Private, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*models.InviteView
	for rows.Next() {
		v := &models.InviteView{}
		var englishName string
		if err := rows.Scan(&v.ID, &v.Slot.Date, &v.Slot.Meal, &v.Slot.Private,
			&v.FromUserID, &v.ToUserID, &v.GroupHostID, &v.Status, &v.Kind,
			&v.CreatedAt, &v.UpdatedAt, &v.OtherUserID, &v.OtherName, &englishName); err != nil {
			return nil, err
		}
		v.OtherName = models.FormatName(v.OtherName, englishName)
		views = append(views, v)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// ReassignInviteGroupHost re-points join requests referencing oldHost's
// group to newHost, as part of host delegation.
func ReassignInviteGroupHost(ctx context.Context, q DBTX, slot models.Slot, oldHostID, newHostID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE invitations SET group_host_id = ?
		WHERE date = ? AND meal = ? AND private = ? AND group_host_id = ?`,
		newHostID, slot.Date, slot.Meal, slot.Private, oldHostID)
	return err
}

func prefixedUserColumns(alias string) string {
	return alias + ".id, " + alias + ".employee_id, " + alias + ".name, " + alias + ".english_name, " +
		alias + ".team, " + alias + ".role, " + alias + ".years, " + alias + ".telegram_chat_id, " +
		alias + ".pin_hash, " + alias + ".created_at"
}
