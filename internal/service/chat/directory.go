package chat

import (
	"context"
	"strings"

	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
)

// Directory is the room-list view: every room with its last-message preview,
// plus room creation. Filtering happens client-side over the full list; the
// store is never queried by title.
type Directory struct {
	rooms *RoomStore
}

// NewDirectory wires the directory to the room store.
func NewDirectory(rooms *RoomStore) *Directory {
	return &Directory{rooms: rooms}
}

// List returns the current room list in creation order.
func (d *Directory) List(ctx context.Context) []chatmodel.Room {
	return d.rooms.Rooms(ctx)
}

// Watch subscribes to room-list snapshots, starting with the current list.
func (d *Directory) Watch() *Subscription[[]chatmodel.Room] {
	return d.rooms.WatchAll()
}

// Create provisions a new room through the directory's "new room" action.
func (d *Directory) Create(ctx context.Context, title string, creator user.User) (chatmodel.Room, error) {
	return d.rooms.CreateRoom(ctx, title, creator)
}

// Filter narrows a room list by case-insensitive substring match on the
// title. It is a pure function over a locally held snapshot.
func Filter(rooms []chatmodel.Room, term string) []chatmodel.Room {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rooms
	}
	filtered := make([]chatmodel.Room, 0, len(rooms))
	for _, room := range rooms {
		if strings.Contains(strings.ToLower(room.Title), term) {
			filtered = append(filtered, room)
		}
	}
	return filtered
}
