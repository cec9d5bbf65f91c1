package engine

// Rejection is a caller-visible outcome: the command was understood but the
// current state forbids it. Rejections are recoverable and carry a
// human-readable reason; storage failures are returned as plain errors.
type Rejection struct {
	Code   string
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

var (
	ErrAlreadyBooked    = &Rejection{Code: "AlreadyBooked", Reason: "you already have a confirmed booking for this meal"}
	ErrNoSeats          = &Rejection{Code: "NoSeats", Reason: "the group has no seats left"}
	ErrNoSuchGroup      = &Rejection{Code: "NoSuchGroup", Reason: "no such group exists for this meal"}
	ErrNotAMember       = &Rejection{Code: "NotAMember", Reason: "the user is not a member of this group"}
	ErrConflict         = &Rejection{Code: "Conflict", Reason: "the delegation target already hosts a group for this meal"}
	ErrDuplicatePending = &Rejection{Code: "DuplicatePending", Reason: "a pending invitation between these users already exists today"}
	ErrSlotExpired      = &Rejection{Code: "SlotExpired", Reason: "it is too late to start anything for this meal"}
	ErrRoleRestricted   = &Rejection{Code: "RoleRestricted", Reason: "this status is not available to your role for lunch"}
	ErrNotPending       = &Rejection{Code: "NotPending", Reason: "the invitation is no longer pending"}
	ErrInvalidArgument  = &Rejection{Code: "InvalidArgument", Reason: "the request is not valid"}
)
