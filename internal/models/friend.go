package models

import "time"

// Friendship lifecycle. Accepted friendships are symmetric and are only used
// to restrict what a viewer may see on private slots.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
)

// Friendship is a directed request row; once accepted it counts for both
// directions.
type Friendship struct {
	ID          int64
	RequesterID int64
	TargetID    int64
	Status      string
	CreatedAt   time.Time
}
