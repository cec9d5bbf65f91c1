package handlers

import (
	"net/http"

	"github.com/lunchbuddy/app/internal/engine"
	"github.com/lunchbuddy/app/internal/models"
)

type groupMemberResponse struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsHost      bool   `json:"is_host"`
}

type groupResponse struct {
	HostID      int64                 `json:"host_id"`
	HostName    string                `json:"host_name"`
	Date        string                `json:"date"`
	Meal        models.Meal           `json:"meal"`
	Private     bool                  `json:"private"`
	SeatsLeft   int                   `json:"seats_left"`
	Menu        string                `json:"menu,omitempty"`
	PayerName   string                `json:"payer_name,omitempty"`
	Kind        string                `json:"kind,omitempty"`
	MemberNames string                `json:"member_names"`
	Members     []groupMemberResponse `json:"members"`
}

func toGroupResponse(view *models.GroupView) groupResponse {
	members := make([]groupMemberResponse, 0, len(view.Members))
	for _, m := range view.Members {
		members = append(members, groupMemberResponse{
			UserID:      m.MemberID,
			DisplayName: m.DisplayName(),
			IsHost:      m.MemberID == view.HostID,
		})
	}
	return groupResponse{
		HostID:      view.HostID,
		HostName:    view.HostName,
		Date:        view.Slot.Date,
		Meal:        view.Slot.Meal,
		Private:     view.Slot.Private,
		SeatsLeft:   view.SeatsLeft,
		Menu:        view.Menu,
		PayerName:   view.PayerName,
		Kind:        view.Kind,
		MemberNames: view.MemberNames,
		Members:     members,
	}
}

// OpenGroup opens (or re-opens with new details) the caller's recruiting
// group for the slot.
func OpenGroup(e *engine.Engine) http.HandlerFunc {
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
			SeatsLeft int    `json:"seats_left"`
			Menu      string `json:"menu"`
			PayerName string `json:"payer_name"`
			Kind      string `json:"kind"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if err := e.OpenHosting(r.Context(), userID, slot, req.SeatsLeft, req.Menu, req.PayerName, req.Kind); err != nil {
			writeError(w, err)
			return
		}
		view, err := e.GetGroup(r.Context(), userID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGroupResponse(view))
	}
}

// GetGroup returns one group with its derived member list.
func GetGroup(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
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

		view, err := e.GetGroup(r.Context(), hostID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGroupResponse(view))
	}
}

// ListOpenGroups lists recruiting groups for the slot, friend-filtered on
// private slots.
func ListOpenGroups(e *engine.Engine) http.HandlerFunc {
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

		views, err := e.ListOpenGroups(r.Context(), slot, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]groupResponse, 0, len(views))
		for _, view := range views {
			out = append(out, toGroupResponse(view))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// MyGroups lists the groups the caller belongs to for the slot.
func MyGroups(e *engine.Engine) http.HandlerFunc {
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

		views, err := e.ListGroupsForUser(r.Context(), userID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]groupResponse, 0, len(views))
		for _, view := range views {
			out = append(out, toGroupResponse(view))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// UpdateGroup edits the shared menu / payer fields, member-only.
func UpdateGroup(e *engine.Engine) http.HandlerFunc {
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
			Menu      string `json:"menu"`
			PayerName string `json:"payer_name"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if err := e.UpdateGroupDetails(r.Context(), userID, hostID, slot, req.Menu, req.PayerName); err != nil {
			writeError(w, err)
			return
		}
		view, err := e.GetGroup(r.Context(), hostID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGroupResponse(view))
	}
}

// DissolveGroup tears the caller's own group down.
func DissolveGroup(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		hostID, ok := pathID(w, r, "hostID")
		if !ok {
			return
		}
		if hostID != userID {
			writeErrorCode(w, http.StatusForbidden, "Forbidden", "only the host may dissolve the group")
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := e.Dissolve(r.Context(), hostID, slot); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// LeaveGroup takes the caller out of the group, returning their seat.
func LeaveGroup(e *engine.Engine) http.HandlerFunc {
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

		if err := e.RemoveMember(r.Context(), hostID, userID, slot); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// DelegateGroup hands the caller's group over to another member.
func DelegateGroup(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		hostID, ok := pathID(w, r, "hostID")
		if !ok {
			return
		}
		if hostID != userID {
			writeErrorCode(w, http.StatusForbidden, "Forbidden", "only the host may delegate the group")
			return
		}
		slot, err := requestSlot(e, r)
		if err != nil {
			writeError(w, err)
			return
		}

		var req struct {
			NewHostID int64 `json:"new_host_id"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if err := e.DelegateHost(r.Context(), userID, req.NewHostID, slot); err != nil {
			writeError(w, err)
			return
		}
		view, err := e.GetGroup(r.Context(), req.NewHostID, slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGroupResponse(view))
	}
}

// GroupHistory lists the dates the caller had a group for the meal.
func GroupHistory(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		meal := models.Meal(r.URL.Query().Get("meal"))
		if meal == "" {
			meal = models.MealLunch
		}
		if !models.ValidMeal(meal) {
			writeError(w, engine.ErrInvalidArgument)
			return
		}
		private := r.URL.Query().Get("private") == "true"

		dates, err := e.GroupDates(r.Context(), userID, meal, private)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
	}
}
