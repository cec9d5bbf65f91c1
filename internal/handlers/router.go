package handlers

import (
	"database/sql"
	"net/http"

	"github.com/lunchbuddy/app/internal/engine"
)

// NewRouter wires the JSON API. adminToken guards the destructive admin
// endpoints; empty disables them.
func NewRouter(db *sql.DB, e *engine.Engine, adminToken string) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth and profile.
	mux.HandleFunc("POST /api/register", Register(db))
	mux.HandleFunc("POST /api/login", Login(db))
	mux.HandleFunc("POST /api/logout", Logout)
	mux.HandleFunc("GET /api/me", Me(db))
	mux.HandleFunc("PUT /api/me", UpdateProfile(db))
	mux.HandleFunc("PUT /api/me/telegram", LinkTelegram(db))

	// Status board.
	mux.HandleFunc("GET /api/status", MyStatus(e))
	mux.HandleFunc("PUT /api/status", SetStatus(e))
	mux.HandleFunc("GET /api/board", Board(e))
	mux.HandleFunc("POST /api/booking/cancel", CancelBooking(e))

	// Groups.
	mux.HandleFunc("POST /api/groups", OpenGroup(e))
	mux.HandleFunc("GET /api/groups", ListOpenGroups(e))
	mux.HandleFunc("GET /api/groups/mine", MyGroups(e))
	mux.HandleFunc("GET /api/groups/history", GroupHistory(e))
	mux.HandleFunc("GET /api/groups/{hostID}", GetGroup(e))
	mux.HandleFunc("PUT /api/groups/{hostID}", UpdateGroup(e))
	mux.HandleFunc("DELETE /api/groups/{hostID}", DissolveGroup(e))
	mux.HandleFunc("POST /api/groups/{hostID}/leave", LeaveGroup(e))
	mux.HandleFunc("POST /api/groups/{hostID}/delegate", DelegateGroup(e))
	mux.HandleFunc("POST /api/groups/{hostID}/chat", PostChat(e))
	mux.HandleFunc("GET /api/groups/{hostID}/chat", ListChat(e))

	// Invitations.
	mux.HandleFunc("POST /api/invites", CreateInvite(e))
	mux.HandleFunc("GET /api/invites/incoming", IncomingInvites(e))
	mux.HandleFunc("GET /api/invites/outgoing", OutgoingInvites(e))
	mux.HandleFunc("POST /api/invites/{id}/accept", AcceptInvite(e))
	mux.HandleFunc("POST /api/invites/{id}/decline", DeclineInvite(e))
	mux.HandleFunc("POST /api/invites/{id}/cancel", CancelInvite(e))
	mux.HandleFunc("GET /api/partners", AcceptedPartners(e))

	// Friends.
	mux.HandleFunc("POST /api/friends/requests", RequestFriend(e))
	mux.HandleFunc("GET /api/friends/requests", IncomingFriendRequests(e, db))
	mux.HandleFunc("POST /api/friends/requests/{requesterID}/accept", AcceptFriend(e))
	mux.HandleFunc("GET /api/friends", ListFriends(e, db))

	// Admin.
	mux.HandleFunc("POST /api/admin/reset-day", AdminResetDay(db, adminToken, e.Today))
	mux.HandleFunc("POST /api/admin/reset-all", AdminResetAll(db, adminToken))

	return mux
}
