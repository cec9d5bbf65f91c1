package database

import "context"

// ResetDay deletes every slot-scoped row for the given date: statuses,
// groups, memberships, invitations and chat. Users and friendships survive.
func ResetDay(ctx context.Context, q DBTX, date string) error {
	for _, table := range []string{"daily_status", "dining_groups", "group_members", "invitations", "group_chat"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE date = ?`, date); err != nil {
			return err
		}
	}
	return nil
}

// ResetAll wipes every table, registrations included.
func ResetAll(ctx context.Context, q DBTX) error {
	for _, table := range []string{"daily_status", "dining_groups", "group_members", "invitations", "group_chat", "friendships", "users"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}
