package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

// CreateInvite sends an invitation from one user to another for the slot.
// A non-nil groupHostID marks it as a join request into that host's group.
// The sender is locked to Planning unless they are inviting into their own
// group, and the receiver is pinged over Telegram when they have a chat ID.
func (e *Engine) CreateInvite(ctx context.Context, fromID, toID int64, slot models.Slot, groupHostID *int64, kind string) (*models.Invitation, error) {
	if fromID == toID || !models.ValidKind(kind) {
		return nil, ErrInvalidArgument
	}
	// A join request is always between the group's host and the joiner;
	// a third party's group has no place in the pair.
	if groupHostID != nil && *groupHostID != fromID && *groupHostID != toID {
		return nil, ErrInvalidArgument
	}
	if slot.Meal != models.MealDinner {
		kind = models.KindNone
	}
	if e.slotExpired(slot) {
		return nil, ErrSlotExpired
	}

	intoOwnGroup := groupHostID != nil && *groupHostID == fromID

	var invite *models.Invitation
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		fromStatus, _, err := database.GetStatus(ctx, tx, slot, fromID)
		if err != nil {
			return err
		}
		if fromStatus == models.StatusBooked && !intoOwnGroup {
			return ErrAlreadyBooked
		}

		// A booked receiver is off the market, except that the host of a
		// group may still be asked to admit someone into it.
		joinToReceiver := groupHostID != nil && *groupHostID == toID
		toStatus, _, err := database.GetStatus(ctx, tx, slot, toID)
		if err != nil {
			return err
		}
		if toStatus == models.StatusBooked && !joinToReceiver {
			return ErrAlreadyBooked
		}

		nullHost := sql.NullInt64{}
		if groupHostID != nil {
			group, err := database.GetGroupByHost(ctx, tx, slot, *groupHostID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoSuchGroup
			}
			if err != nil {
				return err
			}
			// A host inviting into their own zero-seat (1:1-born) group is
			// fine; anyone else needs an open seat at send time.
			if !intoOwnGroup && !group.Recruiting() {
				return ErrNoSeats
			}
			nullHost = sql.NullInt64{Int64: *groupHostID, Valid: true}
		}

		pending, err := database.HasPendingBetween(ctx, tx, slot, fromID, toID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicatePending
		}

		invite, err = database.CreateOrReviveInvite(ctx, tx, slot, fromID, toID, nullHost, kind)
		if err != nil {
			return err
		}

		if !intoOwnGroup && fromStatus != models.StatusHosting {
			return database.UpsertStatus(ctx, tx, slot, fromID, models.StatusPlanning, kind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyInvite(ctx, fromID, toID, slot)
	return invite, nil
}

func (e *Engine) notifyInvite(ctx context.Context, fromID, toID int64, slot models.Slot) {
	to, err := database.GetUserByID(ctx, e.db, toID)
	if err != nil || to.TelegramChatID == "" {
		return
	}
	from, err := database.GetUserByID(ctx, e.db, fromID)
	if err != nil {
		return
	}
	e.sendNotification(to.TelegramChatID,
		fmt.Sprintf("%s invited you to %s on %s.", from.DisplayName(), slot.Meal, slot.Date))
}

// Accept resolves a pending invitation in the receiver's favor. Join
// requests go through the seat-consuming path and then force every group
// member to Booked; 1:1 invitations book both parties and merge them into a
// shared group container.
func (e *Engine) Accept(ctx context.Context, actorID, inviteID int64) error {
	var fromID int64
	var slot models.Slot

	err := e.withTx(ctx, func(tx *sql.Tx) error {
		inv, err := database.GetInvite(ctx, tx, inviteID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotPending
		}
		if err != nil {
			return err
		}
		if inv.ToUserID != actorID {
			return ErrInvalidArgument
		}
		if inv.Status != models.InviteStatusPending {
			return ErrNotPending
		}
		if e.slotExpired(inv.Slot) {
			return ErrSlotExpired
		}
		fromID, slot = inv.FromUserID, inv.Slot

		actorStatus, _, err := database.GetStatus(ctx, tx, inv.Slot, actorID)
		if err != nil {
			return err
		}
		intoOwnGroup := inv.IsJoinRequest() && inv.GroupHostID.Int64 == actorID
		if actorStatus == models.StatusBooked && !intoOwnGroup {
			return ErrAlreadyBooked
		}

		if err := database.UpdateInviteStatus(ctx, tx, inv.ID, models.InviteStatusAccepted); err != nil {
			return err
		}

		if inv.IsJoinRequest() {
			return e.acceptJoinTx(ctx, tx, inv)
		}
		return e.acceptOneOnOneTx(ctx, tx, inv)
	})
	if err != nil {
		return err
	}

	e.notifyAccepted(ctx, actorID, fromID, slot)
	return nil
}

// acceptJoinTx admits the non-host party through the seat path, then books
// the entire membership. Losing the race for the last seat rolls the whole
// accept back, leaving the invitation pending.
func (e *Engine) acceptJoinTx(ctx context.Context, tx *sql.Tx, inv *models.Invitation) error {
	hostID := inv.GroupHostID.Int64
	joinerID := inv.FromUserID
	if hostID == inv.FromUserID {
		joinerID = inv.ToUserID
	}

	if err := e.joinBySeatTx(ctx, tx, inv.Slot, hostID, joinerID); err != nil {
		return err
	}

	group, err := database.GetGroupByHost(ctx, tx, inv.Slot, hostID)
	if err != nil {
		return err
	}
	members, err := database.ListGroupMembers(ctx, tx, inv.Slot, hostID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := database.UpsertStatus(ctx, tx, inv.Slot, m.MemberID, models.StatusBooked, group.Kind); err != nil {
			return err
		}
		if err := database.CancelPendingTouching(ctx, tx, inv.Slot, m.MemberID); err != nil {
			return err
		}
	}
	return nil
}

// acceptOneOnOneTx books both parties and merges them into one container:
// an existing group of either party wins, otherwise a fresh zero-seat group
// hosted by the acceptor is created with a clean chat log.
func (e *Engine) acceptOneOnOneTx(ctx context.Context, tx *sql.Tx, inv *models.Invitation) error {
	for _, userID := range []int64{inv.FromUserID, inv.ToUserID} {
		if err := database.UpsertStatus(ctx, tx, inv.Slot, userID, models.StatusBooked, inv.Kind); err != nil {
			return err
		}
		if err := database.CancelPendingTouching(ctx, tx, inv.Slot, userID); err != nil {
			return err
		}
	}

	hostID, found, err := e.findContainerHostTx(ctx, tx, inv.Slot, inv.ToUserID, inv.FromUserID)
	if err != nil {
		return err
	}
	if !found {
		hostID = inv.ToUserID
		// New booking container: any chat left over from a dissolved group
		// under the same host must not leak into it.
		if err := database.ClearChat(ctx, tx, inv.Slot, hostID); err != nil {
			return err
		}
		if err := e.ensureFixedGroupTx(ctx, tx, inv.Slot, hostID, inv.Kind); err != nil {
			return err
		}
	}

	for _, userID := range []int64{inv.FromUserID, inv.ToUserID} {
		if _, err := database.InsertMember(ctx, tx, inv.Slot, hostID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) findContainerHostTx(ctx context.Context, tx *sql.Tx, slot models.Slot, candidates ...int64) (int64, bool, error) {
	for _, id := range candidates {
		_, err := database.GetGroupByHost(ctx, tx, slot, id)
		if err == nil {
			return id, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, false, err
		}
	}
	return 0, false, nil
}

func (e *Engine) notifyAccepted(ctx context.Context, actorID, fromID int64, slot models.Slot) {
	from, err := database.GetUserByID(ctx, e.db, fromID)
	if err != nil || from.TelegramChatID == "" {
		return
	}
	actor, err := database.GetUserByID(ctx, e.db, actorID)
	if err != nil {
		return
	}
	e.sendNotification(from.TelegramChatID,
		fmt.Sprintf("%s accepted your %s invitation for %s.", actor.DisplayName(), slot.Meal, slot.Date))
}

// Decline resolves a pending invitation against the sender.
func (e *Engine) Decline(ctx context.Context, actorID, inviteID int64) error {
	return e.resolveAgainstSender(ctx, inviteID, func(inv *models.Invitation) (string, error) {
		if inv.ToUserID != actorID {
			return "", ErrInvalidArgument
		}
		return models.InviteStatusDeclined, nil
	})
}

// Cancel withdraws a pending invitation the actor sent.
func (e *Engine) Cancel(ctx context.Context, actorID, inviteID int64) error {
	return e.resolveAgainstSender(ctx, inviteID, func(inv *models.Invitation) (string, error) {
		if inv.FromUserID != actorID {
			return "", ErrInvalidArgument
		}
		return models.InviteStatusCancelled, nil
	})
}

// resolveAgainstSender applies a decline or cancel and releases the
// sender's Planning lock once their last pending outgoing invitation is
// gone.
func (e *Engine) resolveAgainstSender(ctx context.Context, inviteID int64, decide func(*models.Invitation) (string, error)) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		inv, err := database.GetInvite(ctx, tx, inviteID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotPending
		}
		if err != nil {
			return err
		}
		if inv.Status != models.InviteStatusPending {
			return ErrNotPending
		}

		next, err := decide(inv)
		if err != nil {
			return err
		}
		if err := database.UpdateInviteStatus(ctx, tx, inv.ID, next); err != nil {
			return err
		}

		senderStatus, _, err := database.GetStatus(ctx, tx, inv.Slot, inv.FromUserID)
		if err != nil {
			return err
		}
		if senderStatus != models.StatusPlanning {
			return nil
		}
		stillPending, err := database.HasPendingOutgoing(ctx, tx, inv.Slot, inv.FromUserID)
		if err != nil {
			return err
		}
		if !stillPending {
			return database.DeleteStatus(ctx, tx, inv.Slot, inv.FromUserID)
		}
		return nil
	})
}

// IncomingInvites lists the user's pending received invitations for the slot.
func (e *Engine) IncomingInvites(ctx context.Context, userID int64, slot models.Slot) ([]*models.InviteView, error) {
	return database.ListIncomingInvites(ctx, e.db, slot, userID)
}

// OutgoingInvites lists the user's pending sent invitations for the slot.
func (e *Engine) OutgoingInvites(ctx context.Context, userID int64, slot models.Slot) ([]*models.InviteView, error) {
	return database.ListOutgoingInvites(ctx, e.db, slot, userID)
}

// AcceptedPartners lists the users the given user holds an accepted 1:1
// invitation with for the slot.
func (e *Engine) AcceptedPartners(ctx context.Context, userID int64, slot models.Slot) ([]*models.User, error) {
	return database.AcceptedPartners(ctx, e.db, slot, userID)
}
