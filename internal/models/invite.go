package models

import (
	"database/sql"
	"time"
)

// Invitation lifecycle. Pending is the only live state; the other three are
// terminal. Re-inviting the same pair on the same slot revives the existing
// row back to pending instead of inserting a duplicate.
const (
	InviteStatusPending   = "pending"
	InviteStatusAccepted  = "accepted"
	InviteStatusDeclined  = "declined"
	InviteStatusCancelled = "cancelled"
)

// Invitation is a directed invite for one slot. A set GroupHostID makes it a
// join request into that host's group; NULL means a 1:1 proposal.
type Invitation struct {
	ID          int64
	Slot        Slot
	FromUserID  int64
	ToUserID    int64
	GroupHostID sql.NullInt64
	Status      string
	Kind        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsJoinRequest reports whether the invitation references a group.
func (i *Invitation) IsJoinRequest() bool {
	return i.GroupHostID.Valid
}

// InviteView is an invitation joined with the counterparty's display fields.
type InviteView struct {
	Invitation
	OtherUserID int64
	OtherName   string
}
