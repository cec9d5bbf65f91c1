package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

// CancelBooking backs the user out of their commitment for the slot,
// whatever shape it takes. A host tears the whole group down, a member
// leaves it, and a groupless 1:1 match is unwound on both sides. Affected
// counterparties are notified.
func (e *Engine) CancelBooking(ctx context.Context, userID int64, slot models.Slot) error {
	var affected []int64

	err := e.withTx(ctx, func(tx *sql.Tx) error {
		// Hosting: host-initiated cancellation always destroys the group.
		_, err := database.GetGroupByHost(ctx, tx, slot, userID)
		if err == nil {
			members, err := database.ListGroupMembers(ctx, tx, slot, userID)
			if err != nil {
				return err
			}
			for _, m := range members {
				if m.MemberID != userID {
					affected = append(affected, m.MemberID)
				}
			}
			return e.dissolveTx(ctx, tx, slot, userID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		// Member of someone else's group: leave it, seat returns.
		hosts, err := database.ListHostsForMember(ctx, tx, slot, userID)
		if err != nil {
			return err
		}
		if len(hosts) > 0 {
			hostID := hosts[0]
			affected = append(affected, hostID)
			return e.removeMemberTx(ctx, tx, slot, hostID, userID)
		}

		// Groupless 1:1 booking: cancel the accepted links and release any
		// partner left with nothing else keeping them Booked.
		partners, err := database.AcceptedPartners(ctx, tx, slot, userID)
		if err != nil {
			return err
		}
		if err := database.CancelAcceptedTouching(ctx, tx, slot, userID); err != nil {
			return err
		}
		if err := database.DeleteStatus(ctx, tx, slot, userID); err != nil {
			return err
		}
		for _, p := range partners {
			affected = append(affected, p.ID)
			still, err := database.HasAcceptedFor(ctx, tx, slot, p.ID)
			if err != nil {
				return err
			}
			if !still {
				if err := database.DeleteStatus(ctx, tx, slot, p.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.notifyCancelled(ctx, userID, affected, slot)
	return nil
}

func (e *Engine) notifyCancelled(ctx context.Context, userID int64, affected []int64, slot models.Slot) {
	if len(affected) == 0 {
		return
	}
	actor, err := database.GetUserByID(ctx, e.db, userID)
	if err != nil {
		return
	}
	text := fmt.Sprintf("%s cancelled the %s booking for %s.", actor.DisplayName(), slot.Meal, slot.Date)
	for _, id := range affected {
		u, err := database.GetUserByID(ctx, e.db, id)
		if err != nil || u.TelegramChatID == "" {
			continue
		}
		e.sendNotification(u.TelegramChatID, text)
	}
}
