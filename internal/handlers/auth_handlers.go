package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/models"
)

type userResponse struct {
	ID          int64  `json:"id"`
	EmployeeID  string `json:"employee_id"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name,omitempty"`
	DisplayName string `json:"display_name"`
	Team        string `json:"team,omitempty"`
	Role        string `json:"role"`
	Years       int    `json:"years,omitempty"`
	HasTelegram bool   `json:"has_telegram"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		EmployeeID:  u.EmployeeID,
		Name:        u.Name,
		EnglishName: u.EnglishName,
		DisplayName: u.DisplayName(),
		Team:        u.Team,
		Role:        u.Role,
		Years:       u.Years,
		HasTelegram: u.TelegramChatID != "",
	}
}

// Register creates an account and logs it in.
func Register(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EmployeeID  string `json:"employee_id"`
			Name        string `json:"name"`
			EnglishName string `json:"english_name"`
			Team        string `json:"team"`
			Role        string `json:"role"`
			Years       int    `json:"years"`
			PIN         string `json:"pin"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		req.EmployeeID = strings.TrimSpace(req.EmployeeID)
		req.Name = strings.TrimSpace(req.Name)
		if req.EmployeeID == "" || req.Name == "" || req.PIN == "" {
			writeErrorCode(w, http.StatusBadRequest, "BadRequest", "employee_id, name and pin are required")
			return
		}
		if req.Role == "" {
			req.Role = models.RoleMember
		}
		if req.Role != models.RoleMember && req.Role != models.RoleLead && req.Role != models.RoleExecutive {
			writeErrorCode(w, http.StatusBadRequest, "BadRequest", "unknown role")
			return
		}

		if _, err := database.GetUserByEmployeeID(r.Context(), db, req.EmployeeID); err == nil {
			writeErrorCode(w, http.StatusConflict, "Conflict", "employee id already registered")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			writeError(w, err)
			return
		}

		user, err := database.CreateUser(r.Context(), db, &models.User{
			EmployeeID:  req.EmployeeID,
			Name:        req.Name,
			EnglishName: strings.TrimSpace(req.EnglishName),
			Team:        strings.TrimSpace(req.Team),
			Role:        req.Role,
			Years:       req.Years,
		}, req.PIN)
		if err != nil {
			writeError(w, err)
			return
		}

		createSession(w, user.ID)
		writeJSON(w, http.StatusCreated, toUserResponse(user))
	}
}

// Login checks the employee id / PIN pair and issues a session cookie.
func Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EmployeeID string `json:"employee_id"`
			PIN        string `json:"pin"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		user, err := database.GetUserByEmployeeID(r.Context(), db, strings.TrimSpace(req.EmployeeID))
		if errors.Is(err, sql.ErrNoRows) {
			writeErrorCode(w, http.StatusUnauthorized, "Unauthorized", "unknown employee id or wrong PIN")
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if err := database.VerifyPIN(user.PINHash, req.PIN); err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "Unauthorized", "unknown employee id or wrong PIN")
			return
		}

		createSession(w, user.ID)
		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}

// Logout drops the session.
func Logout(w http.ResponseWriter, r *http.Request) {
	clearSession(w, r)
	writeJSON(w, http.StatusNoContent, nil)
}

// Me returns the logged-in user's profile.
func Me(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		user, err := database.GetUserByID(r.Context(), db, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}

// UpdateProfile edits the mutable profile fields.
func UpdateProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			Name        string `json:"name"`
			EnglishName string `json:"english_name"`
			Team        string `json:"team"`
			Years       int    `json:"years"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErrorCode(w, http.StatusBadRequest, "BadRequest", "name is required")
			return
		}

		if err := database.UpdateUserProfile(r.Context(), db, userID, req.Name, strings.TrimSpace(req.EnglishName), strings.TrimSpace(req.Team), req.Years); err != nil {
			writeError(w, err)
			return
		}
		user, err := database.GetUserByID(r.Context(), db, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}

// LinkTelegram stores the chat id the bot DM'd to the user.
func LinkTelegram(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			ChatID string `json:"chat_id"`
		}
		if !readJSON(w, r, &req) {
			return
		}

		if err := database.UpdateTelegramChatID(r.Context(), db, userID, strings.TrimSpace(req.ChatID)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
