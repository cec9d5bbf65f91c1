package database

import (
	"context"

	"github.com/lunchbuddy/app/internal/models"
)

const groupColumns = `id, date, meal, private, host_id, seats_left, menu, payer_name, kind, created_at`

// UpsertGroup creates or updates the (slot, host) group row. Membership rows
// are untouched; callers guarantee host self-membership separately.
func UpsertGroup(ctx context.Context, q DBTX, slot models.Slot, hostID int64, seatsLeft int, menu, payerName, kind string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO dining_groups(date, meal, private, host_id, seats_left, menu, payer_name, kind)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, meal, private, host_id) DO UPDATE SET
			seats_left = excluded.seats_left,
			menu = excluded.menu,
			payer_name = excluded.payer_name,
			kind = excluded.kind`,
		slot.Date, slot.Meal, slot.Private, hostID, seatsLeft, menu, payerName, kind)
	return err
}

// InsertGroupIfAbsent creates a group row only when none exists for the
// (slot, host) key. Used for zero-seat containers backing 1:1 matches.
func InsertGroupIfAbsent(ctx context.Context, q DBTX, slot models.Slot, hostID int64, seatsLeft int, kind string) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO dining_groups(date, meal, private, host_id, seats_left, kind)
		VALUES(?, ?, ?, ?, ?, ?)`,
		slot.Date, slot.Meal, slot.Private, hostID, seatsLeft, kind)
	return err
}

// GetGroupByHost retrieves the group hosted by hostID for the slot.
// Returns sql.ErrNoRows when the host has no group.
func GetGroupByHost(ctx context.Context, q DBTX, slot models.Slot, hostID int64) (*models.Group, error) {
	g := &models.Group{}
	err := q.QueryRowContext(ctx, `
		SELECT `+groupColumns+` FROM dining_groups
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID).
		Scan(&g.ID, &g.Slot.Date, &g.Slot.Meal, &g.Slot.Private, &g.HostID,
			&g.SeatsLeft, &g.Menu, &g.PayerName, &g.Kind, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGroups returns every group for the slot, newest first.
func ListGroups(ctx context.Context, q DBTX, slot models.Slot) ([]*models.Group, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+groupColumns+` FROM dining_groups
		WHERE date = ? AND meal = ? AND private = ?
		ORDER BY created_at DESC`,
		slot.Date, slot.Meal, slot.Private)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Slot.Date, &g.Slot.Meal, &g.Slot.Private, &g.HostID,
			&g.SeatsLeft, &g.Menu, &g.PayerName, &g.Kind, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// UpdateGroupDetails sets the shared display fields (menu, payer label).
func UpdateGroupDetails(ctx context.Context, q DBTX, slot models.Slot, hostID int64, menu, payerName string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE dining_groups SET menu = ?, payer_name = ?
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		menu, payerName, slot.Date, slot.Meal, slot.Private, hostID)
	return err
}

// DeleteGroup removes the group row itself (not its memberships).
func DeleteGroup(ctx context.Context, q DBTX, slot models.Slot, hostID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM dining_groups
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID)
	return err
}

// DecrementSeat takes one seat if any is available. The guarded UPDATE plus
// the RowsAffected check is the race control for concurrent joins: two calls
// racing for the last seat cannot both report true.
func DecrementSeat(ctx context.Context, q DBTX, slot models.Slot, hostID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE dining_groups SET seats_left = seats_left - 1
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ? AND seats_left > 0`,
		slot.Date, slot.Meal, slot.Private, hostID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementSeat returns one seat to the pool.
func IncrementSeat(ctx context.Context, q DBTX, slot models.Slot, hostID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE dining_groups SET seats_left = seats_left + 1
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID)
	return err
}

// InsertMember adds a membership row if absent. Reports whether a new row
// was inserted, so callers can keep seat accounting exactly-once.
func InsertMember(ctx context.Context, q DBTX, slot models.Slot, hostID, memberID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO group_members(date, meal, private, host_id, member_id)
		VALUES(?, ?, ?, ?, ?)`,
		slot.Date, slot.Meal, slot.Private, hostID, memberID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteMember removes a membership row. Reports whether a row existed.
func DeleteMember(ctx context.Context, q DBTX, slot models.Slot, hostID, memberID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		DELETE FROM group_members
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ? AND member_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID, memberID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAllMembers removes every membership row of the (slot, host) group.
func DeleteAllMembers(ctx context.Context, q DBTX, slot models.Slot, hostID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM group_members
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID)
	return err
}

// ListGroupMembers returns the membership set with display names, host
// first, then join order.
func ListGroupMembers(ctx context.Context, q DBTX, slot models.Slot, hostID int64) ([]*models.GroupMember, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT gm.id, gm.date, gm.meal, gm.private, gm.host_id, gm.member_id,
		       u.name, u.english_name, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.member_id
		WHERE gm.date = ? AND gm.meal = ? AND gm.private = ? AND gm.host_id = ?
		ORDER BY (gm.member_id = gm.host_id) DESC, gm.joined_at ASC, gm.id ASC`,
		slot.Date, slot.Meal, slot.Private, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		m := &models.GroupMember{}
		if err := rows.Scan(&m.ID, &m.Slot.Date, &m.Slot.Meal, &m.Slot.Private,
			&m.HostID, &m.MemberID, &m.Name, &m.EnglishName, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// CountMembers returns the current membership size of the (slot, host) group.
func CountMembers(ctx context.Context, q DBTX, slot models.Slot, hostID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_members
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		slot.Date, slot.Meal, slot.Private, hostID).Scan(&n)
	return n, err
}

// ListHostsForMember returns the hosts of every group the user belongs to
// for the slot.
func ListHostsForMember(ctx context.Context, q DBTX, slot models.Slot, memberID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT host_id FROM group_members
		WHERE date = ? AND meal = ? AND private = ? AND member_id = ?
		ORDER BY joined_at DESC`,
		slot.Date, slot.Meal, slot.Private, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hosts []int64
	for rows.Next() {
		var h int64
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return hosts, nil
}

// ListGroupDatesForUser returns the distinct dates (newest first) on which
// the user was a member of any group for the given meal and privacy variant.
func ListGroupDatesForUser(ctx context.Context, q DBTX, meal models.Meal, private bool, userID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT date FROM group_members
		WHERE meal = ? AND private = ? AND member_id = ?
		ORDER BY date DESC`,
		meal, private, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

// ReassignGroupHost re-points the group row and its membership rows from
// oldHost to newHost. Invitations and chat are re-pointed by their own
// functions; the engine runs all of it in one transaction.
func ReassignGroupHost(ctx context.Context, q DBTX, slot models.Slot, oldHostID, newHostID int64) error {
	if _, err := q.ExecContext(ctx, `
		UPDATE dining_groups SET host_id = ?
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		newHostID, slot.Date, slot.Meal, slot.Private, oldHostID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE group_members SET host_id = ?
		WHERE date = ? AND meal = ? AND private = ? AND host_id = ?`,
		newHostID, slot.Date, slot.Meal, slot.Private, oldHostID)
	return err
}
