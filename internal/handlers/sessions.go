package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionStore maps session tokens to user ids. In-memory only: a restart
// logs everyone out, which is acceptable for a tool people re-open daily.
var (
	sessionMu    sync.RWMutex
	sessionStore = make(map[string]int64)
)

const (
	sessionCookieName = "session_token"
	sessionTTL        = 7 * 24 * time.Hour
)

func createSession(w http.ResponseWriter, userID int64) {
	token := uuid.NewString()

	sessionMu.Lock()
	sessionStore[token] = userID
	sessionMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		sessionMu.Lock()
		delete(sessionStore, cookie.Value)
		sessionMu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func sessionUserID(r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return 0, false
	}
	sessionMu.RLock()
	userID, ok := sessionStore[cookie.Value]
	sessionMu.RUnlock()
	return userID, ok
}

// requireUser resolves the session or writes a 401 and reports false.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := sessionUserID(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "Unauthorized", "log in first")
		return 0, false
	}
	return userID, true
}
