package chat

import (
	"context"

	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
)

// Authorizer gates every room read and write. The trust model is flat on
// purpose: membership is the only privilege, there are no roles and the room
// creator has no standing beyond being its first member. Reimplementations
// must keep it that way for behavioral parity.
type Authorizer struct {
	rooms *RoomStore
}

// NewAuthorizer wires the authorizer to the room store it consults.
func NewAuthorizer(rooms *RoomStore) *Authorizer {
	return &Authorizer{rooms: rooms}
}

// CanRead reports whether the user may subscribe to the room. The global
// room (or an absent room id, which means the global room) is open to all;
// every other room requires membership.
func (a *Authorizer) CanRead(ctx context.Context, roomID, userID string) bool {
	return a.allowed(ctx, roomID, userID)
}

// CanWrite reports whether the user may send to the room. Same rule as
// CanRead: membership or the global room.
func (a *Authorizer) CanWrite(ctx context.Context, roomID, userID string) bool {
	return a.allowed(ctx, roomID, userID)
}

// CanAdd decides whether the actor may add the candidate to the room. Any
// member may add any verified user; the candidate must not already belong.
func (a *Authorizer) CanAdd(ctx context.Context, actorID, roomID string, candidate user.User) error {
	room, err := a.rooms.Room(ctx, roomID)
	if err != nil {
		return err
	}
	if !a.allowed(ctx, roomID, actorID) {
		return ErrAccessDenied
	}
	if !candidate.EmailVerified {
		return ErrUnverifiedUser
	}
	if room.IsMember(candidate.ID) {
		return ErrAlreadyMember
	}
	return nil
}

func (a *Authorizer) allowed(ctx context.Context, roomID, userID string) bool {
	if roomID == "" || roomID == chatmodel.GlobalRoomID {
		return true
	}
	room, err := a.rooms.Room(ctx, roomID)
	if err != nil {
		return false
	}
	return room.IsMember(userID)
}
