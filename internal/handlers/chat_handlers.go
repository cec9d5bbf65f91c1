package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lunchbuddy/app/internal/engine"
	"github.com/lunchbuddy/app/internal/models"
)

const defaultChatLimit = 100

type chatMessageResponse struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	UserName string    `json:"user_name"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

func toChatMessageResponse(m *models.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		UserName: m.UserName,
		Message:  m.Message,
		SentAt:   m.SentAt,
	}
}

// PostChat appends a message to the group chat, member-only.
func PostChat(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		hostID, ok := pathID(w, r, "hostID")
		if !ok {
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		var req struct {
			Message string `json:"message"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		msg, err := e.PostChatMessage(r.Context(), userID, hostID, slot, req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toChatMessageResponse(msg))
	}
}

// ListChat returns the newest window of the group chat, oldest first.
func ListChat(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		hostID, ok := pathID(w, r, "hostID")
		if !ok {
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		limit := defaultChatLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		msgs, err := e.ChatMessages(r.Context(), userID, hostID, slot, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]chatMessageResponse, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, toChatMessageResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
