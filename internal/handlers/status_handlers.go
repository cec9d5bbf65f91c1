package handlers

import (
	"net/http"

	"github.com/lunchbuddy/app/internal/engine"
	"github.com/lunchbuddy/app/internal/models"
)

type statusResponse struct {
	Date    string        `json:"date"`
	Meal    models.Meal   `json:"meal"`
	Private bool          `json:"private"`
	Status  models.Status `json:"status"`
	Kind    string        `json:"kind,omitempty"`
}

type boardRow struct {
	UserID      int64         `json:"user_id"`
	DisplayName string        `json:"display_name"`
	Role        string        `json:"role"`
	Status      models.Status `json:"status"`
	Kind        string        `json:"kind,omitempty"`
	HasTelegram bool          `json:"has_telegram"`
}

// MyStatus reconciles and returns the caller's status for the slot.
func MyStatus(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := e.Reconcile(r.Context(), userID, slot); err != nil {
			writeError(w, err)
			return
		}
		status, kind, err := e.GetStatus(r.Context(), userID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Date: slot.Date, Meal: slot.Meal, Private: slot.Private,
			Status: status, Kind: kind,
		})
	}
}

// SetStatus writes the caller's status for the slot.
func SetStatus(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		var req struct {
			Status models.Status `json:"status"`
			Kind   string        `json:"kind"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if err := e.SetStatus(r.Context(), userID, slot, req.Status, req.Kind, false); err != nil {
			writeError(w, err)
			return
		}
		status, kind, err := e.GetStatus(r.Context(), userID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Date: slot.Date, Meal: slot.Meal, Private: slot.Private,
			Status: status, Kind: kind,
		})
	}
}

// Board lists everyone's status for the slot, friend-filtered on private
// slots.
func Board(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		entries, err := e.Board(r.Context(), slot, userID)
		if err != nil {
			writeError(w, err)
			return
		}

		rows := make([]boardRow, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, boardRow{
				UserID:      entry.UserID,
				DisplayName: entry.DisplayName(),
				Role:        entry.Role,
				Status:      entry.Status,
				Kind:        entry.Kind,
				HasTelegram: entry.TelegramChatID != "",
			})
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// CancelBooking backs the caller out of their booking for the slot.
func CancelBooking(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := e.CancelBooking(r.Context(), userID, slot); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
