package models

// Status is a user's declared state for one slot. Booked is terminal for the
// day: it can only be left through the cancellation flow.
type Status string

const (
	StatusNotSet   Status = "not_set"
	StatusFree     Status = "free"
	StatusHosting  Status = "hosting"
	StatusPlanning Status = "planning"
	StatusSkip     Status = "skip"
	StatusBooked   Status = "booked"
)

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNotSet, StatusFree, StatusHosting, StatusPlanning, StatusSkip, StatusBooked:
		return true
	}
	return false
}

// Kind labels what a dinner participant is available for. Empty for lunch.
const (
	KindNone  = ""
	KindMeal  = "meal"
	KindDrink = "drink"
)

// ValidKind reports whether k is one of the known kind values.
func ValidKind(k string) bool {
	return k == KindNone || k == KindMeal || k == KindDrink
}

// BoardEntry is one row of the board view: a user together with their
// (possibly repaired) status for the slot.
type BoardEntry struct {
	UserID         int64
	Name           string
	EnglishName    string
	Role           string
	TelegramChatID string
	Status         Status
	Kind           string
}

// DisplayName mirrors User.DisplayName for board rows.
func (e *BoardEntry) DisplayName() string {
	return FormatName(e.Name, e.EnglishName)
}
