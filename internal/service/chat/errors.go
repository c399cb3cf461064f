package chat

import "errors"

var (
	// ErrEmptyTitle rejects room creation when the title trims to nothing.
	ErrEmptyTitle = errors.New("room title is empty")
	// ErrEmptyMessage rejects an append when the text trims to nothing.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrRoomNotFound reports an unknown room id.
	ErrRoomNotFound = errors.New("room not found")
	// ErrAlreadyMember reports a membership add for an existing member. The
	// membership set is unchanged; callers surface it as its own outcome.
	ErrAlreadyMember = errors.New("user is already a member")
	// ErrUnverifiedUser reports a membership add for an unverified identity.
	ErrUnverifiedUser = errors.New("user email is not verified")
	// ErrAccessDenied reports a read or write attempt by a non-member of a
	// non-global room.
	ErrAccessDenied = errors.New("access denied")
	// ErrSessionOpen reports an Open on a session that is already live.
	ErrSessionOpen = errors.New("session already open")
)
