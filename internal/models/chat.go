package models

import "time"

// ChatMessage is one line of a group's member chat, scoped to the group's
// (slot, host) key so delegation can re-point the whole transcript.
type ChatMessage struct {
	ID       int64
	Slot     Slot
	HostID   int64
	UserID   int64
	UserName string // display name at send time
	Message  string
	SentAt   time.Time
}
