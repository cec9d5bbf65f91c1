package handlers

import (
	"crypto/subtle"
	"database/sql"
	"net/http"
	"time"

	"github.com/lunchbuddy/app/internal/database"
)

const adminTokenHeader = "X-Admin-Token"

func authorizeAdmin(w http.ResponseWriter, r *http.Request, token string) bool {
	if token == "" {
		writeErrorCode(w, http.StatusForbidden, "Forbidden", "admin operations are disabled")
		return false
	}
	got := r.Header.Get(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
		writeErrorCode(w, http.StatusForbidden, "Forbidden", "bad admin token")
		return false
	}
	return true
}

// AdminResetDay wipes all slot-scoped rows for one date. The date defaults
// to today.
func AdminResetDay(db *sql.DB, token string, today func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorizeAdmin(w, r, token) {
			return
		}

		var req struct {
			Date string `json:"date"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if req.Date == "" {
			req.Date = today()
		} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			writeErrorCode(w, http.StatusBadRequest, "BadRequest", "invalid date")
			return
		}

		if err := database.ResetDay(r.Context(), db, req.Date); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// AdminResetAll wipes everything, registrations included.
func AdminResetAll(db *sql.DB, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorizeAdmin(w, r, token) {
			return
		}
		if err := database.ResetAll(r.Context(), db); err != nil {
			writeError(w, err)
			return
		}

		sessionMu.Lock()
		for token := range sessionStore {
			delete(sessionStore, token)
		}
		sessionMu.Unlock()
		writeJSON(w, http.StatusNoContent, nil)
	}
}
