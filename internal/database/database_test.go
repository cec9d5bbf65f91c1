package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lunchbuddy/app/internal/models"
)

// setupTestDB initializes an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateUser(t *testing.T, db *sql.DB, employeeID, name string) *models.User {
	t.Helper()

	u, err := CreateUser(context.Background(), db, &models.User{
		EmployeeID: employeeID,
		Name:       name,
		Team:       "Platform",
		Role:       models.RoleMember,
	}, "1234")
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", employeeID, err)
	}
	return u
}

func testSlot() models.Slot {
	return models.Slot{Date: "2026-03-02", Meal: models.MealLunch}
}

func TestCreateAndVerifyUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, db, "E001", "Mina")
	if u.ID == 0 {
		t.Error("expected a non-zero user id")
	}
	if u.PINHash == "1234" {
		t.Error("PIN was stored in plain text")
	}

	got, err := GetUserByEmployeeID(ctx, db, "E001")
	if err != nil {
		t.Fatalf("GetUserByEmployeeID failed: %v", err)
	}
	if got.Name != "Mina" {
		t.Errorf("expected name Mina, got %q", got.Name)
	}

	if err := VerifyPIN(got.PINHash, "1234"); err != nil {
		t.Errorf("correct PIN rejected: %v", err)
	}
	if err := VerifyPIN(got.PINHash, "9999"); err == nil {
		t.Error("wrong PIN accepted")
	}

	if _, err := CreateUser(ctx, db, &models.User{EmployeeID: "E001", Name: "Dup"}, "0000"); err == nil {
		t.Error("duplicate employee id accepted")
	}
}

func TestStatusUpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	slot := testSlot()
	u := mustCreateUser(t, db, "E002", "Joon")

	status, kind, err := GetStatus(ctx, db, slot, u.ID)
	if err != nil {
		t.Fatalf("GetStatus on empty table failed: %v", err)
	}
	if status != models.StatusNotSet || kind != models.KindNone {
		t.Errorf("expected not_set with no kind, got %s/%s", status, kind)
	}

	if err := UpsertStatus(ctx, db, slot, u.ID, models.StatusFree, models.KindNone); err != nil {
		t.Fatalf("UpsertStatus failed: %v", err)
	}
	if err := UpsertStatus(ctx, db, slot, u.ID, models.StatusPlanning, models.KindNone); err != nil {
		t.Fatalf("second UpsertStatus failed: %v", err)
	}

	status, _, err = GetStatus(ctx, db, slot, u.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status != models.StatusPlanning {
		t.Errorf("expected planning after upsert, got %s", status)
	}

	// ListStatuses includes users who never set anything.
	mustCreateUser(t, db, "E003", "Silent")
	entries, err := ListStatuses(ctx, db, slot)
	if err != nil {
		t.Fatalf("ListStatuses failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 board rows, got %d", len(entries))
	}
	found := false
	for _, entry := range entries {
		if entry.Status == models.StatusNotSet {
			found = true
		}
	}
	if !found {
		t.Error("user without a status row should list as not_set")
	}

	if err := DeleteStatus(ctx, db, slot, u.ID); err != nil {
		t.Fatalf("DeleteStatus failed: %v", err)
	}
	status, _, _ = GetStatus(ctx, db, slot, u.ID)
	if status != models.StatusNotSet {
		t.Errorf("expected not_set after delete, got %s", status)
	}
}

func TestSeatCounterGuard(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	slot := testSlot()
	host := mustCreateUser(t, db, "E004", "Host")

	if err := UpsertGroup(ctx, db, slot, host.ID, 1, "", "", models.KindNone); err != nil {
		t.Fatalf("UpsertGroup failed: %v", err)
	}

	took, err := DecrementSeat(ctx, db, slot, host.ID)
	if err != nil || !took {
		t.Fatalf("first DecrementSeat = (%v, %v), want (true, nil)", took, err)
	}
	took, err = DecrementSeat(ctx, db, slot, host.ID)
	if err != nil {
		t.Fatalf("second DecrementSeat errored: %v", err)
	}
	if took {
		t.Error("DecrementSeat went below zero")
	}

	if err := IncrementSeat(ctx, db, slot, host.ID); err != nil {
		t.Fatalf("IncrementSeat failed: %v", err)
	}
	g, err := GetGroupByHost(ctx, db, slot, host.ID)
	if err != nil {
		t.Fatalf("GetGroupByHost failed: %v", err)
	}
	if g.SeatsLeft != 1 {
		t.Errorf("expected 1 seat after +1, got %d", g.SeatsLeft)
	}
}

func TestGroupMembersHostFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	slot := testSlot()
	host := mustCreateUser(t, db, "E005", "Host")
	m1 := mustCreateUser(t, db, "E006", "M1")
	m2 := mustCreateUser(t, db, "E007", "M2")

	if err := UpsertGroup(ctx, db, slot, host.ID, 3, "", "", models.KindNone); err != nil {
		t.Fatalf("UpsertGroup failed: %v", err)
	}
	for _, id := range []int64{m1.ID, m2.ID, host.ID} {
		if _, err := InsertMember(ctx, db, slot, host.ID, id); err != nil {
			t.Fatalf("InsertMember(%d) failed: %v", id, err)
		}
	}

	members, err := ListGroupMembers(ctx, db, slot, host.ID)
	if err != nil {
		t.Fatalf("ListGroupMembers failed: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[0].MemberID != host.ID {
		t.Errorf("host should sort first, got member %d", members[0].MemberID)
	}

	inserted, err := InsertMember(ctx, db, slot, host.ID, m1.ID)
	if err != nil {
		t.Fatalf("duplicate InsertMember errored: %v", err)
	}
	if inserted {
		t.Error("duplicate membership reported as inserted")
	}

	n, err := CountMembers(ctx, db, slot, host.ID)
	if err != nil || n != 3 {
		t.Errorf("CountMembers = (%d, %v), want (3, nil)", n, err)
	}
}

func TestInviteReviveAndSweep(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	slot := testSlot()
	a := mustCreateUser(t, db, "E008", "A")
	b := mustCreateUser(t, db, "E009", "B")
	c := mustCreateUser(t, db, "E010", "C")

	inv, err := CreateOrReviveInvite(ctx, db, slot, a.ID, b.ID, sql.NullInt64{}, models.KindNone)
	if err != nil {
		t.Fatalf("CreateOrReviveInvite failed: %v", err)
	}
	if err := UpdateInviteStatus(ctx, db, inv.ID, models.InviteStatusDeclined); err != nil {
		t.Fatalf("UpdateInviteStatus failed: %v", err)
	}

	revived, err := CreateOrReviveInvite(ctx, db, slot, a.ID, b.ID, sql.NullInt64{}, models.KindNone)
	if err != nil {
		t.Fatalf("revive failed: %v", err)
	}
	if revived.ID != inv.ID {
		t.Errorf("revival created a new row: %d != %d", revived.ID, inv.ID)
	}
	if revived.Status != models.InviteStatusPending {
		t.Errorf("revived invite is %s, want pending", revived.Status)
	}

	// Sweep cancels A's other pending invites, but a group invite hosted by
	// the swept user itself survives.
	if _, err := CreateOrReviveInvite(ctx, db, slot, a.ID, c.ID, sql.NullInt64{Int64: a.ID, Valid: true}, models.KindNone); err != nil {
		t.Fatalf("group invite failed: %v", err)
	}
	if err := CancelPendingTouching(ctx, db, slot, a.ID); err != nil {
		t.Fatalf("CancelPendingTouching failed: %v", err)
	}

	swept, err := GetInviteBetween(ctx, db, slot, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetInviteBetween failed: %v", err)
	}
	if swept.Status != models.InviteStatusCancelled {
		t.Errorf("plain invite not swept: %s", swept.Status)
	}
	kept, err := GetInviteBetween(ctx, db, slot, a.ID, c.ID)
	if err != nil {
		t.Fatalf("GetInviteBetween failed: %v", err)
	}
	if kept.Status != models.InviteStatusPending {
		t.Errorf("self-hosted group invite was swept: %s", kept.Status)
	}
}

func TestAcceptedPartnersBothDirections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	slot := testSlot()
	a := mustCreateUser(t, db, "E011", "A")
	b := mustCreateUser(t, db, "E012", "B")
	c := mustCreateUser(t, db, "E013", "C")

	out, err := CreateOrReviveInvite(ctx, db, slot, a.ID, b.ID, sql.NullInt64{}, models.KindNone)
	if err != nil {
		t.Fatalf("invite a->b failed: %v", err)
	}
	in, err := CreateOrReviveInvite(ctx, db, slot, c.ID, a.ID, sql.NullInt64{}, models.KindNone)
	if err != nil {
		t.Fatalf("invite c->a failed: %v", err)
	}
	for _, id := range []int64{out.ID, in.ID} {
		if err := UpdateInviteStatus(ctx, db, id, models.InviteStatusAccepted); err != nil {
			t.Fatalf("UpdateInviteStatus failed: %v", err)
		}
	}

	partners, err := AcceptedPartners(ctx, db, slot, a.ID)
	if err != nil {
		t.Fatalf("AcceptedPartners failed: %v", err)
	}
	if len(partners) != 2 {
		t.Fatalf("expected 2 partners, got %d", len(partners))
	}

	hasAccepted, err := HasAcceptedFor(ctx, db, slot, b.ID)
	if err != nil || !hasAccepted {
		t.Errorf("HasAcceptedFor(b) = (%v, %v), want (true, nil)", hasAccepted, err)
	}
}

func TestFriendshipLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateUser(t, db, "E014", "A")
	b := mustCreateUser(t, db, "E015", "B")

	if err := UpsertFriendRequest(ctx, db, a.ID, b.ID); err != nil {
		t.Fatalf("UpsertFriendRequest failed: %v", err)
	}
	// Repeats are a no-op, not an error.
	if err := UpsertFriendRequest(ctx, db, a.ID, b.ID); err != nil {
		t.Fatalf("repeated request failed: %v", err)
	}

	mutual, err := AreFriends(ctx, db, a.ID, b.ID)
	if err != nil || mutual {
		t.Errorf("pending request should not count as friendship")
	}

	accepted, err := AcceptFriendRequest(ctx, db, a.ID, b.ID)
	if err != nil || !accepted {
		t.Fatalf("AcceptFriendRequest = (%v, %v), want (true, nil)", accepted, err)
	}

	// Friendship is symmetric regardless of who asked.
	for _, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
		mutual, err := AreFriends(ctx, db, pair[0], pair[1])
		if err != nil || !mutual {
			t.Errorf("AreFriends(%d, %d) = (%v, %v), want (true, nil)", pair[0], pair[1], mutual, err)
		}
	}

	ids, err := ListFriendIDs(ctx, db, b.ID)
	if err != nil {
		t.Fatalf("ListFriendIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("ListFriendIDs(b) = %v, want [%d]", ids, a.ID)
	}

	accepted, err = AcceptFriendRequest(ctx, db, b.ID, a.ID)
	if err != nil {
		t.Fatalf("reverse accept errored: %v", err)
	}
	if accepted {
		t.Error("accepting a request that was never sent should report false")
	}
}

func TestChatLogLimitAndClear(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	slot := testSlot()
	host := mustCreateUser(t, db, "E016", "Host")

	for _, text := range []string{"first", "second", "third"} {
		if _, err := InsertChatMessage(ctx, db, slot, host.ID, host.ID, "Host", text); err != nil {
			t.Fatalf("InsertChatMessage(%q) failed: %v", text, err)
		}
	}

	msgs, err := ListChatMessages(ctx, db, slot, host.ID, 2)
	if err != nil {
		t.Fatalf("ListChatMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// The newest window, oldest first.
	if msgs[0].Message != "second" || msgs[1].Message != "third" {
		t.Errorf("unexpected window: %q, %q", msgs[0].Message, msgs[1].Message)
	}

	if err := ClearChat(ctx, db, slot, host.ID); err != nil {
		t.Fatalf("ClearChat failed: %v", err)
	}
	msgs, err = ListChatMessages(ctx, db, slot, host.ID, 0)
	if err != nil {
		t.Fatalf("ListChatMessages after clear failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty log after clear, got %d rows", len(msgs))
	}
}

func TestResetDayScopesToDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := mustCreateUser(t, db, "E017", "U")

	today := models.Slot{Date: "2026-03-02", Meal: models.MealLunch}
	tomorrow := models.Slot{Date: "2026-03-03", Meal: models.MealLunch}
	for _, slot := range []models.Slot{today, tomorrow} {
		if err := UpsertStatus(ctx, db, slot, u.ID, models.StatusFree, models.KindNone); err != nil {
			t.Fatalf("UpsertStatus failed: %v", err)
		}
	}

	if err := ResetDay(ctx, db, today.Date); err != nil {
		t.Fatalf("ResetDay failed: %v", err)
	}

	status, _, _ := GetStatus(ctx, db, today, u.ID)
	if status != models.StatusNotSet {
		t.Errorf("today's status survived the reset: %s", status)
	}
	status, _, _ = GetStatus(ctx, db, tomorrow, u.ID)
	if status != models.StatusFree {
		t.Errorf("tomorrow's status was reset too: %s", status)
	}

	if err := ResetAll(ctx, db); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}
	if _, err := GetUserByID(ctx, db, u.ID); err != sql.ErrNoRows {
		t.Errorf("ResetAll must wipe registrations, got %v", err)
	}
}