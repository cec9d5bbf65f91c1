package engine

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

// OpenHosting creates or updates the host's recruiting group for the slot.
// Host self-membership is guaranteed, accepted 1:1 partners are normalized
// into the membership set without consuming seats, and existing non-host
// members are left alone. The host's status becomes Hosting unless they are
// already Booked.
func (e *Engine) OpenHosting(ctx context.Context, hostID int64, slot models.Slot, seatsLeft int, menu, payerName, kind string) error {
	if seatsLeft < 0 || !models.ValidKind(kind) {
		return ErrInvalidArgument
	}
	if e.slotExpired(slot) {
		return ErrSlotExpired
	}
	if slot.Meal != models.MealDinner {
		kind = models.KindNone
	}

	return e.withTx(ctx, func(tx *sql.Tx) error {
		if err := database.UpsertGroup(ctx, tx, slot, hostID, seatsLeft, strings.TrimSpace(menu), strings.TrimSpace(payerName), kind); err != nil {
			return err
		}
		if _, err := database.InsertMember(ctx, tx, slot, hostID, hostID); err != nil {
			return err
		}

		partners, err := database.AcceptedPartners(ctx, tx, slot, hostID)
		if err != nil {
			return err
		}
		for _, p := range partners {
			if _, err := database.InsertMember(ctx, tx, slot, hostID, p.ID); err != nil {
				return err
			}
		}

		status, _, err := database.GetStatus(ctx, tx, slot, hostID)
		if err != nil {
			return err
		}
		if status != models.StatusBooked {
			return database.UpsertStatus(ctx, tx, slot, hostID, models.StatusHosting, kind)
		}
		return nil
	})
}

// EnsureFixedGroup creates a zero-seat group for the host if none exists,
// so a 1:1 match has a container for shared fields like menu and payer.
func (e *Engine) EnsureFixedGroup(ctx context.Context, hostID int64, slot models.Slot, kind string) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		return e.ensureFixedGroupTx(ctx, tx, slot, hostID, kind)
	})
}

func (e *Engine) ensureFixedGroupTx(ctx context.Context, tx *sql.Tx, slot models.Slot, hostID int64, kind string) error {
	if err := database.InsertGroupIfAbsent(ctx, tx, slot, hostID, 0, kind); err != nil {
		return err
	}
	_, err := database.InsertMember(ctx, tx, slot, hostID, hostID)
	return err
}

// JoinBySeat is the capacity-consuming membership path: it verifies a seat,
// inserts the membership and takes the seat as one transaction. Joining a
// group one already belongs to succeeds without touching the counter.
func (e *Engine) JoinBySeat(ctx context.Context, hostID, memberID int64, slot models.Slot) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		return e.joinBySeatTx(ctx, tx, slot, hostID, memberID)
	})
}

func (e *Engine) joinBySeatTx(ctx context.Context, tx *sql.Tx, slot models.Slot, hostID, memberID int64) error {
	if _, err := database.GetGroupByHost(ctx, tx, slot, hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoSuchGroup
		}
		return err
	}

	inserted, err := database.InsertMember(ctx, tx, slot, hostID, memberID)
	if err != nil {
		return err
	}
	if !inserted {
		// Already a member; idempotent success, seat untouched.
		return nil
	}

	// The guarded decrement re-verifies capacity at write time; losing the
	// race for the last seat rolls the insert back too.
	took, err := database.DecrementSeat(ctx, tx, slot, hostID)
	if err != nil {
		return err
	}
	if !took {
		return ErrNoSeats
	}
	return nil
}

// AddWithoutSeat is the non-capacity membership path used when normalizing
// already-matched partners into a group. It never touches the seat counter.
func (e *Engine) AddWithoutSeat(ctx context.Context, hostID, memberID int64, slot models.Slot) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		return e.addWithoutSeatTx(ctx, tx, slot, hostID, memberID)
	})
}

func (e *Engine) addWithoutSeatTx(ctx context.Context, tx *sql.Tx, slot models.Slot, hostID, memberID int64) error {
	if _, err := database.GetGroupByHost(ctx, tx, slot, hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoSuchGroup
		}
		return err
	}
	_, err := database.InsertMember(ctx, tx, slot, hostID, memberID)
	return err
}

// RemoveMember takes a member out of the group, returning their seat and
// clearing their commitment. A group left with a single member is not a
// valid booking and auto-dissolves.
func (e *Engine) RemoveMember(ctx context.Context, hostID, memberID int64, slot models.Slot) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		return e.removeMemberTx(ctx, tx, slot, hostID, memberID)
	})
}

func (e *Engine) removeMemberTx(ctx context.Context, tx *sql.Tx, slot models.Slot, hostID, memberID int64) error {
	// The host leaving is not a membership change, it is the end of the
	// group: host self-membership is invariant and was never seat-backed.
	if memberID == hostID {
		if _, err := database.GetGroupByHost(ctx, tx, slot, hostID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoSuchGroup
			}
			return err
		}
		return e.dissolveTx(ctx, tx, slot, hostID)
	}

	deleted, err := database.DeleteMember(ctx, tx, slot, hostID, memberID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotAMember
	}

	if err := database.IncrementSeat(ctx, tx, slot, hostID); err != nil {
		return err
	}

	if err := database.CancelAcceptedTouching(ctx, tx, slot, memberID); err != nil {
		return err
	}
	if err := database.DeleteStatus(ctx, tx, slot, memberID); err != nil {
		return err
	}

	remaining, err := database.CountMembers(ctx, tx, slot, hostID)
	if err != nil {
		return err
	}
	if remaining == 1 {
		return e.dissolveTx(ctx, tx, slot, hostID)
	}
	return nil
}

// Dissolve is the host-initiated teardown: the group and every membership
// are deleted regardless of size, each former member's accepted invitations
// are cancelled and their status cleared.
func (e *Engine) Dissolve(ctx context.Context, hostID int64, slot models.Slot) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := database.GetGroupByHost(ctx, tx, slot, hostID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoSuchGroup
			}
			return err
		}
		return e.dissolveTx(ctx, tx, slot, hostID)
	})
}

func (e *Engine) dissolveTx(ctx context.Context, tx *sql.Tx, slot models.Slot, hostID int64) error {
	members, err := database.ListGroupMembers(ctx, tx, slot, hostID)
	if err != nil {
		return err
	}

	if err := database.DeleteAllMembers(ctx, tx, slot, hostID); err != nil {
		return err
	}
	if err := database.DeleteGroup(ctx, tx, slot, hostID); err != nil {
		return err
	}
	if err := database.ClearChat(ctx, tx, slot, hostID); err != nil {
		return err
	}

	for _, m := range members {
		if err := database.CancelAcceptedTouching(ctx, tx, slot, m.MemberID); err != nil {
			return err
		}
		if err := database.DeleteStatus(ctx, tx, slot, m.MemberID); err != nil {
			return err
		}
	}
	return nil
}

// dissolveIfHosting tears down the user's group if they host one. Used by
// status writes that are incompatible with hosting.
func (e *Engine) dissolveIfHosting(ctx context.Context, tx *sql.Tx, slot models.Slot, userID int64) error {
	_, err := database.GetGroupByHost(ctx, tx, slot, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.dissolveTx(ctx, tx, slot, userID)
}

// DelegateHost re-points the group, its membership rows, its chat log and
// any join requests from oldHost to newHost, who must already be a member.
// Delegation is seat-neutral and keeps the outgoing host in the membership
// set, so delegating back restores the original state exactly.
func (e *Engine) DelegateHost(ctx context.Context, oldHostID, newHostID int64, slot models.Slot) error {
	if oldHostID == newHostID {
		return ErrInvalidArgument
	}

	return e.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := database.GetGroupByHost(ctx, tx, slot, oldHostID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoSuchGroup
			}
			return err
		}

		members, err := database.ListGroupMembers(ctx, tx, slot, oldHostID)
		if err != nil {
			return err
		}
		isMember := false
		for _, m := range members {
			if m.MemberID == newHostID {
				isMember = true
				break
			}
		}
		if !isMember {
			return ErrNotAMember
		}

		// One group per (slot, host): the target must not already own one.
		if _, err := database.GetGroupByHost(ctx, tx, slot, newHostID); err == nil {
			return ErrConflict
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err := database.ReassignGroupHost(ctx, tx, slot, oldHostID, newHostID); err != nil {
			return err
		}
		if err := database.ReassignInviteGroupHost(ctx, tx, slot, oldHostID, newHostID); err != nil {
			return err
		}
		return database.ReassignChatHost(ctx, tx, slot, oldHostID, newHostID)
	})
}

// UpdateGroupDetails lets any member edit the shared display fields.
func (e *Engine) UpdateGroupDetails(ctx context.Context, actorID, hostID int64, slot models.Slot, menu, payerName string) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := database.GetGroupByHost(ctx, tx, slot, hostID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoSuchGroup
			}
			return err
		}

		member, err := e.isMemberTx(ctx, tx, slot, hostID, actorID)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotAMember
		}
		return database.UpdateGroupDetails(ctx, tx, slot, hostID, strings.TrimSpace(menu), strings.TrimSpace(payerName))
	})
}

func (e *Engine) isMemberTx(ctx context.Context, tx *sql.Tx, slot models.Slot, hostID, userID int64) (bool, error) {
	members, err := database.ListGroupMembers(ctx, tx, slot, hostID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.MemberID == userID {
			return true, nil
		}
	}
	return false, nil
}

// GetGroup returns the (slot, host) group with its derived member list, or
// ErrNoSuchGroup.
func (e *Engine) GetGroup(ctx context.Context, hostID int64, slot models.Slot) (*models.GroupView, error) {
	group, err := database.GetGroupByHost(ctx, e.db, slot, hostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSuchGroup
		}
		return nil, err
	}
	return e.buildGroupView(ctx, group)
}

func (e *Engine) buildGroupView(ctx context.Context, group *models.Group) (*models.GroupView, error) {
	members, err := database.ListGroupMembers(ctx, e.db, group.Slot, group.HostID)
	if err != nil {
		return nil, err
	}

	view := &models.GroupView{Group: *group, Members: members}
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.MemberID == group.HostID {
			view.HostName = m.DisplayName()
		}
		names = append(names, m.DisplayName())
	}
	view.MemberNames = strings.Join(names, ", ")
	return view, nil
}

// ListOpenGroups returns the recruiting groups for the slot (seats left),
// restricted to the viewer's friends on private slots.
func (e *Engine) ListOpenGroups(ctx context.Context, slot models.Slot, viewerID int64) ([]*models.GroupView, error) {
	groups, err := database.ListGroups(ctx, e.db, slot)
	if err != nil {
		return nil, err
	}

	var visible map[int64]bool
	if slot.Private {
		friendIDs, err := database.ListFriendIDs(ctx, e.db, viewerID)
		if err != nil {
			return nil, err
		}
		visible = make(map[int64]bool, len(friendIDs)+1)
		visible[viewerID] = true
		for _, id := range friendIDs {
			visible[id] = true
		}
	}

	var views []*models.GroupView
	for _, g := range groups {
		if !g.Recruiting() {
			continue
		}
		if visible != nil && !visible[g.HostID] {
			continue
		}
		view, err := e.buildGroupView(ctx, g)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ListGroupsForUser returns the groups the user belongs to for the slot,
// most recently joined first.
func (e *Engine) ListGroupsForUser(ctx context.Context, userID int64, slot models.Slot) ([]*models.GroupView, error) {
	hosts, err := database.ListHostsForMember(ctx, e.db, slot, userID)
	if err != nil {
		return nil, err
	}

	var views []*models.GroupView
	for _, host := range hosts {
		group, err := database.GetGroupByHost(ctx, e.db, slot, host)
		if errors.Is(err, sql.ErrNoRows) {
			continue // orphaned membership; the reconcile pass cleans these
		}
		if err != nil {
			return nil, err
		}
		view, err := e.buildGroupView(ctx, group)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GroupDates returns the dates (newest first) on which the user had a group
// for the meal, for the history view.
func (e *Engine) GroupDates(ctx context.Context, userID int64, meal models.Meal, private bool) ([]string, error) {
	return database.ListGroupDatesForUser(ctx, e.db, meal, private, userID)
}
