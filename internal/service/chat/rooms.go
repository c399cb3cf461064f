package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
)

// RoomStore holds room metadata: title, membership, and the denormalized
// last-message preview. Messages themselves live in the MessageLog.
type RoomStore struct {
	mu     sync.RWMutex
	rooms  map[string]chatmodel.Room
	order  []string
	buffer int

	roomWatchers map[string]map[string]*Subscription[chatmodel.Room]
	listWatchers map[string]*Subscription[[]chatmodel.Room]
}

// NewRoomStore bootstraps the in-memory room store and creates the global
// room, which is open to everyone and never membership-gated.
func NewRoomStore(globalTitle string, buffer int) *RoomStore {
	s := &RoomStore{
		rooms:        make(map[string]chatmodel.Room),
		buffer:       buffer,
		roomWatchers: make(map[string]map[string]*Subscription[chatmodel.Room]),
		listWatchers: make(map[string]*Subscription[[]chatmodel.Room]),
	}

	s.rooms[chatmodel.GlobalRoomID] = chatmodel.Room{
		ID:        chatmodel.GlobalRoomID,
		Title:     globalTitle,
		CreatedAt: time.Now().UnixMilli(),
		Members:   make(map[string]chatmodel.Member),
	}
	s.order = append(s.order, chatmodel.GlobalRoomID)

	return s
}

// CreateRoom provisions a room whose sole member is the creator. Directory
// watchers observe the new room immediately.
func (s *RoomStore) CreateRoom(_ context.Context, title string, creator user.User) (chatmodel.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return chatmodel.Room{}, ErrEmptyTitle
	}

	now := time.Now().UnixMilli()
	room := chatmodel.Room{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedBy: creator.ID,
		CreatedAt: now,
		Members: map[string]chatmodel.Member{
			creator.ID: {
				Email:       creator.Email,
				DisplayName: creator.Name(),
				PhotoURL:    creator.PhotoURL,
				JoinedAt:    now,
			},
		},
	}

	s.mu.Lock()
	s.rooms[room.ID] = room
	s.order = append(s.order, room.ID)
	s.notifyListLocked()
	s.mu.Unlock()

	return cloneRoom(room), nil
}

// AddMember adds a verified user to the room's member set. A second add of
// the same user reports ErrAlreadyMember and leaves the set unchanged.
func (s *RoomStore) AddMember(_ context.Context, roomID string, candidate user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if !candidate.EmailVerified {
		return ErrUnverifiedUser
	}
	if room.IsMember(candidate.ID) {
		return ErrAlreadyMember
	}

	members := make(map[string]chatmodel.Member, len(room.Members)+1)
	for id, m := range room.Members {
		members[id] = m
	}
	members[candidate.ID] = chatmodel.Member{
		Email:       candidate.Email,
		DisplayName: candidate.Name(),
		PhotoURL:    candidate.PhotoURL,
		JoinedAt:    time.Now().UnixMilli(),
	}
	room.Members = members
	s.rooms[roomID] = room

	s.notifyRoomLocked(room)
	s.notifyListLocked()
	return nil
}

// UpdateLastMessage overwrites the denormalized preview. Last writer wins:
// when two sends race, the preview reflects some sent message, not
// necessarily the latest one.
func (s *RoomStore) UpdateLastMessage(_ context.Context, roomID string, summary chatmodel.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	room.LastMessage = &summary
	s.rooms[roomID] = room

	s.notifyRoomLocked(room)
	s.notifyListLocked()
	return nil
}

// Room returns a copy of the room's metadata.
func (s *RoomStore) Room(_ context.Context, roomID string) (chatmodel.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return chatmodel.Room{}, ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

// Rooms returns the room list in creation order.
func (s *RoomStore) Rooms(_ context.Context) []chatmodel.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Watch subscribes to a single room's metadata. The current state is
// delivered immediately.
func (s *RoomStore) Watch(roomID string) (*Subscription[chatmodel.Room], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	id := uuid.NewString()
	sub := newSubscription[chatmodel.Room](s.buffer, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if watchers, ok := s.roomWatchers[roomID]; ok {
			delete(watchers, id)
			if len(watchers) == 0 {
				delete(s.roomWatchers, roomID)
			}
		}
	})

	if s.roomWatchers[roomID] == nil {
		s.roomWatchers[roomID] = make(map[string]*Subscription[chatmodel.Room])
	}
	s.roomWatchers[roomID][id] = sub

	sub.push(cloneRoom(room))
	return sub, nil
}

// WatchAll subscribes to the full room list for the directory view.
func (s *RoomStore) WatchAll() *Subscription[[]chatmodel.Room] {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	sub := newSubscription[[]chatmodel.Room](s.buffer, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listWatchers, id)
	})
	s.listWatchers[id] = sub

	sub.push(s.snapshotLocked())
	return sub
}

func (s *RoomStore) notifyRoomLocked(room chatmodel.Room) {
	for _, sub := range s.roomWatchers[room.ID] {
		sub.push(cloneRoom(room))
	}
}

func (s *RoomStore) notifyListLocked() {
	if len(s.listWatchers) == 0 {
		return
	}
	snapshot := s.snapshotLocked()
	for _, sub := range s.listWatchers {
		sub.push(snapshot)
	}
}

func (s *RoomStore) snapshotLocked() []chatmodel.Room {
	rooms := make([]chatmodel.Room, 0, len(s.order))
	for _, id := range s.order {
		rooms = append(rooms, cloneRoom(s.rooms[id]))
	}
	return rooms
}

func cloneRoom(room chatmodel.Room) chatmodel.Room {
	members := make(map[string]chatmodel.Member, len(room.Members))
	for id, m := range room.Members {
		members[id] = m
	}
	room.Members = members
	if room.LastMessage != nil {
		last := *room.LastMessage
		room.LastMessage = &last
	}
	return room
}
