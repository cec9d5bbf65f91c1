package models

import (
	"strings"
	"time"
)

// Role tiers. Lunch "Free" is not available to leads and executives.
const (
	RoleMember    = "member"
	RoleLead      = "lead"
	RoleExecutive = "executive"
)

// User represents a registered participant. EmployeeID is the unique
// external identifier; TelegramChatID is empty until the user links the bot.
type User struct {
	ID             int64
	EmployeeID     string
	Name           string
	EnglishName    string
	Team           string
	Role           string
	Years          int
	TelegramChatID string
	PINHash        string
	CreatedAt      time.Time
}

// DisplayName is the human-readable name shown on the board:
// "Name(EnglishName)" when an english name is set, otherwise just Name.
func (u *User) DisplayName() string {
	return FormatName(u.Name, u.EnglishName)
}

// FormatName combines a local and an english name for display.
func FormatName(name, englishName string) string {
	name = strings.TrimSpace(name)
	englishName = strings.TrimSpace(englishName)
	if englishName == "" {
		return name
	}
	return name + "(" + englishName + ")"
}
