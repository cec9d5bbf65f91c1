package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

func TestOneOnOneInviteFlow(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I100", "A")
	b := createTestUser(t, db, "I101", "B")
	c := createTestUser(t, db, "I102", "C")
	slot := lunchSlot(e)

	inv, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)

	status, _, err := e.GetStatus(ctx, a.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlanning, status, "sender locks to Planning")

	// A second iron in the fire, to be swept on booking.
	_, err = e.CreateInvite(ctx, a.ID, c.ID, slot, nil, models.KindNone)
	require.NoError(t, err)

	require.NoError(t, e.Accept(ctx, b.ID, inv.ID))

	for _, id := range []int64{a.ID, b.ID} {
		status, _, err := e.GetStatus(ctx, id, slot)
		require.NoError(t, err)
		assert.Equal(t, models.StatusBooked, status)
	}

	// Both parties share a zero-seat container hosted by the acceptor.
	view, err := e.GetGroup(ctx, b.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, 0, view.SeatsLeft)
	assert.Len(t, view.Members, 2)

	swept, err := database.GetInviteBetween(ctx, db, slot, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusCancelled, swept.Status)
}

func TestCreateInviteRejectsBookedParties(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I103", "A")
	b := createTestUser(t, db, "I104", "B")
	c := createTestUser(t, db, "I105", "C")
	slot := lunchSlot(e)

	inv, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)
	require.NoError(t, e.Accept(ctx, b.ID, inv.ID))

	_, err = e.CreateInvite(ctx, a.ID, c.ID, slot, nil, models.KindNone)
	assert.ErrorIs(t, err, ErrAlreadyBooked, "booked sender")

	_, err = e.CreateInvite(ctx, c.ID, a.ID, slot, nil, models.KindNone)
	assert.ErrorIs(t, err, ErrAlreadyBooked, "booked receiver")
}

func TestBookedHostMayInviteIntoOwnGroup(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	host := createTestUser(t, db, "I106", "Host")
	m1 := createTestUser(t, db, "I107", "M1")
	m2 := createTestUser(t, db, "I108", "M2")
	slot := lunchSlot(e)

	require.NoError(t, e.OpenHosting(ctx, host.ID, slot, 2, "", "", models.KindNone))
	req, err := e.CreateInvite(ctx, m1.ID, host.ID, slot, &host.ID, models.KindNone)
	require.NoError(t, err)
	require.NoError(t, e.Accept(ctx, host.ID, req.ID))

	// Host is now Booked but may keep recruiting for their own group.
	_, err = e.CreateInvite(ctx, host.ID, m2.ID, slot, &host.ID, models.KindNone)
	require.NoError(t, err)

	status, _, err := e.GetStatus(ctx, host.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, status, "group invite must not demote the host to Planning")
}

func TestJoinRequestAcceptBooksWholeGroup(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	host := createTestUser(t, db, "I109", "Host")
	joiner := createTestUser(t, db, "I110", "Joiner")
	other := createTestUser(t, db, "I111", "Other")
	slot := lunchSlot(e)

	require.NoError(t, e.OpenHosting(ctx, host.ID, slot, 2, "", "", models.KindNone))

	// A pending invite from the host into their own group must survive the
	// booking sweep.
	_, err := e.CreateInvite(ctx, host.ID, other.ID, slot, &host.ID, models.KindNone)
	require.NoError(t, err)

	req, err := e.CreateInvite(ctx, joiner.ID, host.ID, slot, &host.ID, models.KindNone)
	require.NoError(t, err)
	require.NoError(t, e.Accept(ctx, host.ID, req.ID))

	view, err := e.GetGroup(ctx, host.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, 1, view.SeatsLeft)
	assert.Len(t, view.Members, 2)

	for _, id := range []int64{host.ID, joiner.ID} {
		status, _, err := e.GetStatus(ctx, id, slot)
		require.NoError(t, err)
		assert.Equal(t, models.StatusBooked, status)
	}

	kept, err := database.GetInviteBetween(ctx, db, slot, host.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, kept.Status)
}

func TestJoinRequestLosesLastSeatRollsBack(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	host := createTestUser(t, db, "I112", "Host")
	j1 := createTestUser(t, db, "I113", "J1")
	j2 := createTestUser(t, db, "I114", "J2")
	slot := lunchSlot(e)

	require.NoError(t, e.OpenHosting(ctx, host.ID, slot, 1, "", "", models.KindNone))

	r1, err := e.CreateInvite(ctx, j1.ID, host.ID, slot, &host.ID, models.KindNone)
	require.NoError(t, err)
	r2, err := e.CreateInvite(ctx, j2.ID, host.ID, slot, &host.ID, models.KindNone)
	require.NoError(t, err)

	require.NoError(t, e.Accept(ctx, host.ID, r1.ID))
	err = e.Accept(ctx, host.ID, r2.ID)
	assert.ErrorIs(t, err, ErrNoSeats)

	// The whole accept rolled back: the request is still pending and the
	// loser keeps their Planning lock until it resolves.
	still, err := database.GetInvite(ctx, db, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, still.Status)

	status, _, err := e.GetStatus(ctx, j2.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlanning, status)

	// Withdrawing the request releases the lock.
	require.NoError(t, e.Cancel(ctx, j2.ID, r2.ID))
	status, _, err = e.GetStatus(ctx, j2.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotSet, status)
}

func TestDuplicatePendingAndRevival(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I115", "A")
	b := createTestUser(t, db, "I116", "B")
	slot := lunchSlot(e)

	first, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)

	_, err = e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	assert.ErrorIs(t, err, ErrDuplicatePending)

	require.NoError(t, e.Decline(ctx, b.ID, first.ID))

	// Re-inviting the same person revives the one (slot, from, to) row
	// rather than growing a history.
	revived, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)
	assert.Equal(t, first.ID, revived.ID)
	assert.Equal(t, models.InviteStatusPending, revived.Status)
}

func TestPlanningReleasedWithLastPendingOutgoing(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I117", "A")
	b := createTestUser(t, db, "I118", "B")
	c := createTestUser(t, db, "I119", "C")
	slot := lunchSlot(e)

	toB, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)
	toC, err := e.CreateInvite(ctx, a.ID, c.ID, slot, nil, models.KindNone)
	require.NoError(t, err)

	require.NoError(t, e.Cancel(ctx, a.ID, toB.ID))
	status, _, err := e.GetStatus(ctx, a.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlanning, status, "one pending invite still out")

	require.NoError(t, e.Decline(ctx, c.ID, toC.ID))
	status, _, err = e.GetStatus(ctx, a.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotSet, status)
}

func TestResolveNonPendingRejected(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I120", "A")
	b := createTestUser(t, db, "I121", "B")
	slot := lunchSlot(e)

	inv, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)
	require.NoError(t, e.Accept(ctx, b.ID, inv.ID))

	assert.ErrorIs(t, e.Accept(ctx, b.ID, inv.ID), ErrNotPending)
	assert.ErrorIs(t, e.Cancel(ctx, a.ID, inv.ID), ErrNotPending)
	assert.ErrorIs(t, e.Decline(ctx, b.ID, inv.ID), ErrNotPending)
	assert.ErrorIs(t, e.Accept(ctx, b.ID, 99999), ErrNotPending)
}

func TestAcceptOnlyByReceiver(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I122", "A")
	b := createTestUser(t, db, "I123", "B")
	slot := lunchSlot(e)

	inv, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Accept(ctx, a.ID, inv.ID), ErrInvalidArgument)
	assert.ErrorIs(t, e.Decline(ctx, a.ID, inv.ID), ErrInvalidArgument)
	assert.ErrorIs(t, e.Cancel(ctx, b.ID, inv.ID), ErrInvalidArgument)
}

func TestCancelBookingUnwindsOneOnOne(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I124", "A")
	b := createTestUser(t, db, "I125", "B")
	slot := lunchSlot(e)

	inv, err := e.CreateInvite(ctx, a.ID, b.ID, slot, nil, models.KindNone)
	require.NoError(t, err)
	require.NoError(t, e.Accept(ctx, b.ID, inv.ID))

	require.NoError(t, e.CancelBooking(ctx, a.ID, slot))

	for _, id := range []int64{a.ID, b.ID} {
		status, _, err := e.GetStatus(ctx, id, slot)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNotSet, status)
	}

	unwound, err := database.GetInvite(ctx, db, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusCancelled, unwound.Status)

	_, err = e.GetGroup(ctx, b.ID, slot)
	assert.ErrorIs(t, err, ErrNoSuchGroup)
}

func TestCancelBookingByHostDissolves(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	host := createTestUser(t, db, "I126", "Host")
	m1 := createTestUser(t, db, "I127", "M1")
	m2 := createTestUser(t, db, "I128", "M2")
	slot := lunchSlot(e)

	require.NoError(t, e.OpenHosting(ctx, host.ID, slot, 2, "", "", models.KindNone))
	require.NoError(t, e.JoinBySeat(ctx, host.ID, m1.ID, slot))
	require.NoError(t, e.JoinBySeat(ctx, host.ID, m2.ID, slot))

	require.NoError(t, e.CancelBooking(ctx, host.ID, slot))

	_, err := e.GetGroup(ctx, host.ID, slot)
	assert.ErrorIs(t, err, ErrNoSuchGroup)
	for _, id := range []int64{host.ID, m1.ID, m2.ID} {
		status, _, err := e.GetStatus(ctx, id, slot)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNotSet, status)
	}
}

func TestChatMemberOnly(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	host := createTestUser(t, db, "I129", "Host")
	member := createTestUser(t, db, "I130", "Member")
	outsider := createTestUser(t, db, "I131", "Out")
	slot := lunchSlot(e)

	require.NoError(t, e.OpenHosting(ctx, host.ID, slot, 2, "", "", models.KindNone))
	require.NoError(t, e.JoinBySeat(ctx, host.ID, member.ID, slot))

	msg, err := e.PostChatMessage(ctx, member.ID, host.ID, slot, "  where are we meeting?  ")
	require.NoError(t, err)
	assert.Equal(t, "where are we meeting?", msg.Message)
	assert.Equal(t, "Member", msg.UserName)

	_, err = e.PostChatMessage(ctx, outsider.ID, host.ID, slot, "hi")
	assert.ErrorIs(t, err, ErrNotAMember)
	_, err = e.ChatMessages(ctx, outsider.ID, host.ID, slot, 50)
	assert.ErrorIs(t, err, ErrNotAMember)

	msgs, err := e.ChatMessages(ctx, member.ID, host.ID, slot, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, member.ID, msgs[0].UserID)
}

func TestCreateInviteRejectsThirdPartyGroup(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()
	a := createTestUser(t, db, "I132", "Alice")
	b := createTestUser(t, db, "I133", "Bob")
	c := createTestUser(t, db, "I134", "Carol")
	slot := lunchSlot(e)

	require.NoError(t, e.OpenHosting(ctx, c.ID, slot, 3, "", "", models.KindNone))

	// A join request names either the sender's or the receiver's group,
	// never a bystander's.
	_, err := e.CreateInvite(ctx, a.ID, b.ID, slot, &c.ID, models.KindNone)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// The host themselves can still be invited against their own group.
	_, err = e.CreateInvite(ctx, a.ID, c.ID, slot, &c.ID, models.KindNone)
	require.NoError(t, err)
}
