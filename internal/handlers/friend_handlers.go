package handlers

import (
	"database/sql"
	"net/http"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/engine"
)

// RequestFriend records a pending friend request to another user.
func RequestFriend(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			TargetID int64 `json:"target_id"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if err := e.RequestFriend(r.Context(), userID, req.TargetID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// AcceptFriend accepts the pending request the path user sent to the caller.
func AcceptFriend(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		requesterID, ok := pathID(w, r, "requesterID")
		if !ok {
			return
		}

		if err := e.AcceptFriend(r.Context(), userID, requesterID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// ListFriends returns the caller's accepted friends as profiles.
func ListFriends(e *engine.Engine, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		ids, err := e.FriendIDs(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]userResponse, 0, len(ids))
		for _, id := range ids {
			u, err := database.GetUserByID(r.Context(), db, id)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// IncomingFriendRequests lists pending requests addressed to the caller.
func IncomingFriendRequests(e *engine.Engine, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		reqs, err := e.IncomingFriendRequests(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]userResponse, 0, len(reqs))
		for _, fr := range reqs {
			u, err := database.GetUserByID(r.Context(), db, fr.RequesterID)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
