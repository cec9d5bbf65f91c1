// Package engine implements the daily meal-matching and group-formation
// core: the status state machine, the invitation lifecycle, seat-counted
// group membership and the privacy filter. Every command runs as a single
// transaction against the sqlite store; reads used for display are allowed
// to be stale and are repaired defensively.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunchbuddy/app/internal/models"
	"github.com/lunchbuddy/app/internal/notify"
)

// Clock supplies the current time. Swapped out in tests and by the
// meal-expiry guard.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config carries the engine's tunables. Zero values fall back to the
// defaults of the original deployment (Asia/Seoul, 13:00 lunch cutoff,
// 20:00 dinner cutoff).
type Config struct {
	Location     *time.Location
	LunchCutoff  string // "HH:MM"
	DinnerCutoff string // "HH:MM"
	Clock        Clock
}

const (
	defaultLunchCutoff  = "13:00"
	defaultDinnerCutoff = "20:00"
)

// Engine is the command/query surface consumed by the presentation layer.
type Engine struct {
	db       *sql.DB
	notifier notify.Notifier
	clock    Clock
	loc      *time.Location
	cutoffs  map[models.Meal]int // minutes since midnight
}

// New builds an Engine over the given store and notification collaborator.
func New(db *sql.DB, notifier notify.Notifier, cfg Config) (*Engine, error) {
	if notifier == nil {
		notifier = notify.Noop{}
	}

	loc := cfg.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation("Asia/Seoul")
		if err != nil {
			return nil, fmt.Errorf("load default timezone: %w", err)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	cutoffs := make(map[models.Meal]int, 2)
	for meal, spec := range map[models.Meal]string{
		models.MealLunch:  orDefault(cfg.LunchCutoff, defaultLunchCutoff),
		models.MealDinner: orDefault(cfg.DinnerCutoff, defaultDinnerCutoff),
	} {
		minutes, err := parseClockTime(spec)
		if err != nil {
			return nil, fmt.Errorf("cutoff for %s: %w", meal, err)
		}
		cutoffs[meal] = minutes
	}

	return &Engine{
		db:       db,
		notifier: notifier,
		clock:    clock,
		loc:      loc,
		cutoffs:  cutoffs,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseClockTime(spec string) (int, error) {
	t, err := time.Parse("15:04", spec)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Today returns the current date in the engine's timezone. All slot
// construction goes through this so the date never drifts with UTC.
func (e *Engine) Today() string {
	return e.clock.Now().In(e.loc).Format("2006-01-02")
}

// TodaySlot builds today's slot for the given meal and privacy variant.
func (e *Engine) TodaySlot(meal models.Meal, private bool) models.Slot {
	return models.Slot{Date: e.Today(), Meal: meal, Private: private}
}

// slotExpired is the time-of-day guard: past dates are always expired, and
// today's slot expires once the meal's cutoff has passed. Evaluated per
// call; nothing is scheduled.
func (e *Engine) slotExpired(slot models.Slot) bool {
	today := e.Today()
	if slot.Date < today {
		return true
	}
	if slot.Date > today {
		return false
	}
	now := e.clock.Now().In(e.loc)
	return now.Hour()*60+now.Minute() >= e.cutoffs[slot.Meal]
}

// withTx runs fn inside a transaction, rolling back on any error. Every
// multi-store command goes through here so partial mutations cannot leak.
func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("engine: rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// sendNotification delivers best-effort, off the transaction path. Failure
// is logged, never propagated.
func (e *Engine) sendNotification(chatID, text string) {
	if chatID == "" {
		return
	}
	go func() {
		if !e.notifier.Notify(chatID, text) {
			slog.Warn("engine: notification not delivered", "chat_id", chatID)
		}
	}()
}
