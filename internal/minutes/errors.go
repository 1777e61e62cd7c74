package minutes

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotAMember    = errors.New("not a member of this room")
	ErrForbidden     = errors.New("operation requires the admin role")
	ErrMissingField  = errors.New("required field is empty")
	ErrRoomFinalized = errors.New("room is finalized")
)
