package models

import "time"

// Group is a host-owned dining party for one slot. SeatsLeft counts open
// seats; a group with zero seats is "fixed" (not recruiting) but still a
// valid booked unit. At most one group exists per (slot, host).
type Group struct {
	ID        int64
	Slot      Slot
	HostID    int64
	SeatsLeft int
	Menu      string
	PayerName string
	Kind      string
	CreatedAt time.Time
}

// Recruiting reports whether the group still has open seats.
func (g *Group) Recruiting() bool {
	return g.SeatsLeft > 0
}

// GroupMember is one row of the normalized membership set, the source of
// truth for "who is in this group". The host is always a member of their
// own group.
type GroupMember struct {
	ID          int64
	Slot        Slot
	HostID      int64
	MemberID    int64
	Name        string
	EnglishName string
	JoinedAt    time.Time
}

// DisplayName mirrors User.DisplayName for membership rows.
func (m *GroupMember) DisplayName() string {
	return FormatName(m.Name, m.EnglishName)
}

// GroupView is a group joined with its derived member list for display.
// MemberNames is recomputed from the membership set on every read; it is
// never stored.
type GroupView struct {
	Group
	HostName    string
	MemberNames string
	Members     []*GroupMember
}
