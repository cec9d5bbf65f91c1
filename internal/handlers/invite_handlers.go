package handlers

import (
	"context"
	"net/http"

	"github.com/lunchbuddy/app/internal/engine"
	"github.com/lunchbuddy/app/internal/models"
)

type inviteResponse struct {
	ID          int64       `json:"id"`
	Date        string      `json:"date"`
	Meal        models.Meal `json:"meal"`
	Private     bool        `json:"private"`
	FromUserID  int64       `json:"from_user_id"`
	ToUserID    int64       `json:"to_user_id"`
	GroupHostID *int64      `json:"group_host_id,omitempty"`
	Status      string      `json:"status"`
	Kind        string      `json:"kind,omitempty"`
}

func toInviteResponse(inv *models.Invitation) inviteResponse {
	resp := inviteResponse{
		ID:         inv.ID,
		Date:       inv.Slot.Date,
		Meal:       inv.Slot.Meal,
		Private:    inv.Slot.Private,
		FromUserID: inv.FromUserID,
		ToUserID:   inv.ToUserID,
		Status:     inv.Status,
		Kind:       inv.Kind,
	}
	if inv.GroupHostID.Valid {
		host := inv.GroupHostID.Int64
		resp.GroupHostID = &host
	}
	return resp
}

type inviteViewResponse struct {
	inviteResponse
	OtherUserID int64  `json:"other_user_id"`
	OtherName   string `json:"other_name"`
}

func toInviteViewResponses(views []*models.InviteView) []inviteViewResponse {
	out := make([]inviteViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, inviteViewResponse{
			inviteResponse: toInviteResponse(&v.Invitation),
			OtherUserID:    v.OtherUserID,
			OtherName:      v.OtherName,
		})
	}
	return out
}

// CreateInvite sends an invitation or, with group_host_id set, a join
// request for that host's group.
func CreateInvite(e *engine.Engine) http.HandlerFunc {
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
			ToUserID    int64  `json:"to_user_id"`
			GroupHostID *int64 `json:"group_host_id"`
			Kind        string `json:"kind"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		inv, err := e.CreateInvite(r.Context(), userID, req.ToUserID, slot, req.GroupHostID, req.Kind)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toInviteResponse(inv))
	}
}

// AcceptInvite resolves a pending invitation in the caller's favor.
func AcceptInvite(e *engine.Engine) http.HandlerFunc {
	return inviteAction(e.Accept)
}

// DeclineInvite resolves a pending invitation against the sender.
func DeclineInvite(e *engine.Engine) http.HandlerFunc {
	return inviteAction(e.Decline)
}

// CancelInvite withdraws a pending invitation the caller sent.
func CancelInvite(e *engine.Engine) http.HandlerFunc {
	return inviteAction(e.Cancel)
}

func inviteAction(action func(ctx context.Context, actorID, inviteID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		inviteID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := action(r.Context(), userID, inviteID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// IncomingInvites lists the caller's pending received invitations.
func IncomingInvites(e *engine.Engine) http.HandlerFunc {
	return inviteList(e, e.IncomingInvites)
}

// OutgoingInvites lists the caller's pending sent invitations.
func OutgoingInvites(e *engine.Engine) http.HandlerFunc {
	return inviteList(e, e.OutgoingInvites)
}

func inviteList(e *engine.Engine, list func(ctx context.Context, userID int64, slot models.Slot) ([]*models.InviteView, error)) http.HandlerFunc {
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

		views, err := list(r.Context(), userID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInviteViewResponses(views))
	}
}

// AcceptedPartners lists the caller's accepted 1:1 counterparties for the
// slot.
func AcceptedPartners(e *engine.Engine) http.HandlerFunc {
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

		partners, err := e.AcceptedPartners(r.Context(), userID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]userResponse, 0, len(partners))
		for _, p := range partners {
			out = append(out, toUserResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
