package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lunchbuddy/app/internal/engine"
	"github.com/lunchbuddy/app/internal/models"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("handlers: encode response", "error", err)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeError maps engine rejections to HTTP statuses; anything else is a 500
// with the detail kept server-side.
func writeError(w http.ResponseWriter, err error) {
	var rej *engine.Rejection
	if errors.As(err, &rej) {
		writeErrorCode(w, rejectionStatus(rej), rej.Code, rej.Reason)
		return
	}
	slog.Error("handlers: internal error", "error", err)
	writeErrorCode(w, http.StatusInternalServerError, "Internal", "internal server error")
}

func rejectionStatus(rej *engine.Rejection) int {
	switch rej {
	case engine.ErrInvalidArgument:
		return http.StatusBadRequest
	case engine.ErrNoSuchGroup:
		return http.StatusNotFound
	case engine.ErrNotAMember, engine.ErrRoleRestricted:
		return http.StatusForbidden
	default:
		return http.StatusConflict
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return false
	}
	return true
}

// requestSlot builds the slot from the date/meal/private query parameters.
// The date defaults to today in the engine's timezone.
func requestSlot(e *engine.Engine, r *http.Request) (models.Slot, error) {
	meal := models.Meal(r.URL.Query().Get("meal"))
	if meal == "" {
		meal = models.MealLunch
	}
	if !models.ValidMeal(meal) {
		return models.Slot{}, engine.ErrInvalidArgument
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = e.Today()
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return models.Slot{}, engine.ErrInvalidArgument
	}

	private := r.URL.Query().Get("private") == "true"
	return models.Slot{Date: date, Meal: meal, Private: private}, nil
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeErrorCode(w, http.StatusBadRequest, "BadRequest", "invalid "+name)
		return 0, false
	}
	return id, true
}
