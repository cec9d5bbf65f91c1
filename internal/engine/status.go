package engine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

// SetStatus writes the user's status for the slot. Booked is sticky: leaving
// it requires the override only the cancellation flow passes. Setting any
// non-hosting, non-booked status dissolves a group the user hosts; setting
// Booked sweeps the user's other pending invitations.
func (e *Engine) SetStatus(ctx context.Context, userID int64, slot models.Slot, status models.Status, kind string, override bool) error {
	if !models.ValidStatus(status) || !models.ValidKind(kind) {
		return ErrInvalidArgument
	}
	if slot.Meal != models.MealDinner {
		kind = models.KindNone
	}

	return e.withTx(ctx, func(tx *sql.Tx) error {
		current, _, err := database.GetStatus(ctx, tx, slot, userID)
		if err != nil {
			return err
		}
		if current == models.StatusBooked && status != models.StatusBooked && !override {
			return ErrAlreadyBooked
		}

		if status == models.StatusFree && slot.Meal == models.MealLunch {
			user, err := database.GetUserByID(ctx, tx, userID)
			if err != nil {
				return err
			}
			if user.Role == models.RoleLead || user.Role == models.RoleExecutive {
				return ErrRoleRestricted
			}
		}

		// Leaving the hosting business implies tearing the group down.
		if status != models.StatusHosting && status != models.StatusBooked {
			if err := e.dissolveIfHosting(ctx, tx, slot, userID); err != nil {
				return err
			}
		}

		if status == models.StatusNotSet {
			if err := database.DeleteStatus(ctx, tx, slot, userID); err != nil {
				return err
			}
		} else if err := database.UpsertStatus(ctx, tx, slot, userID, status, kind); err != nil {
			return err
		}

		if status == models.StatusBooked {
			return database.CancelPendingTouching(ctx, tx, slot, userID)
		}
		return nil
	})
}

// ClearStatus reverts the user to NotSet. Booked users must go through
// CancelBooking instead.
func (e *Engine) ClearStatus(ctx context.Context, userID int64, slot models.Slot) error {
	return e.SetStatus(ctx, userID, slot, models.StatusNotSet, models.KindNone, false)
}

// GetStatus returns the user's raw status row, NotSet when absent.
func (e *Engine) GetStatus(ctx context.Context, userID int64, slot models.Slot) (models.Status, string, error) {
	return database.GetStatus(ctx, e.db, slot, userID)
}

// Reconcile is the idempotent self-heal run before trusting a status read:
// an accepted invitation forces Booked (the one legitimate override), and a
// Hosting claim without a live group reverts to NotSet.
func (e *Engine) Reconcile(ctx context.Context, userID int64, slot models.Slot) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		accepted, err := database.HasAcceptedFor(ctx, tx, slot, userID)
		if err != nil {
			return err
		}

		status, kind, err := database.GetStatus(ctx, tx, slot, userID)
		if err != nil {
			return err
		}

		if accepted {
			// An accepted join request implies membership; restore the row
			// if it went missing, without touching the seat counter.
			host, found, err := database.LatestAcceptedGroupHost(ctx, tx, slot, userID)
			if err != nil {
				return err
			}
			if found {
				if _, err := database.GetGroupByHost(ctx, tx, slot, host); err == nil {
					if _, err := database.InsertMember(ctx, tx, slot, host, userID); err != nil {
						return err
					}
				} else if !errors.Is(err, sql.ErrNoRows) {
					return err
				}
			}

			if status == models.StatusBooked {
				return nil
			}
			return database.UpsertStatus(ctx, tx, slot, userID, models.StatusBooked, kind)
		}

		if status == models.StatusHosting {
			_, err := database.GetGroupByHost(ctx, tx, slot, userID)
			if errors.Is(err, sql.ErrNoRows) {
				return database.DeleteStatus(ctx, tx, slot, userID)
			}
			return err
		}
		return nil
	})
}

// Board returns every visible user with their status for the slot. Rows
// that claim Booked without an accepted invitation, or Hosting without a
// group, are reported as NotSet rather than trusted. On private slots the
// view is restricted to the viewer and their accepted friends.
func (e *Engine) Board(ctx context.Context, slot models.Slot, viewerID int64) ([]*models.BoardEntry, error) {
	entries, err := database.ListStatuses(ctx, e.db, slot)
	if err != nil {
		return nil, err
	}

	accepted, err := database.UsersWithAcceptedInvites(ctx, e.db, slot)
	if err != nil {
		return nil, err
	}

	groups, err := database.ListGroups(ctx, e.db, slot)
	if err != nil {
		return nil, err
	}
	hosts := make(map[int64]bool, len(groups))
	for _, g := range groups {
		hosts[g.HostID] = true
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

	out := entries[:0]
	for _, entry := range entries {
		if visible != nil && !visible[entry.UserID] {
			continue
		}
		switch entry.Status {
		case models.StatusBooked:
			if !accepted[entry.UserID] {
				entry.Status = models.StatusNotSet
				entry.Kind = models.KindNone
			}
		case models.StatusHosting:
			if !hosts[entry.UserID] {
				entry.Status = models.StatusNotSet
				entry.Kind = models.KindNone
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
