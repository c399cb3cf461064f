package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	"github.com/hsuanlin/recipetalk/backend/pkg/msgid"
)

// MessageLog is the append-only, per-room ordered message store. Ids are
// ULIDs drawn under the store lock, so id order equals append order
// regardless of the wall-clock timestamps senders attach.
type MessageLog struct {
	mu       sync.RWMutex
	messages map[string][]chatmodel.Message
	watchers map[string]map[uint64]*Subscription[[]chatmodel.Message]
	nextSub  atomic.Uint64
	buffer   int
}

// NewMessageLog bootstraps the in-memory log.
func NewMessageLog(buffer int) *MessageLog {
	return &MessageLog{
		messages: make(map[string][]chatmodel.Message),
		watchers: make(map[string]map[uint64]*Subscription[[]chatmodel.Message]),
		buffer:   buffer,
	}
}

// Append stores a message at the end of the room's log and returns its id.
// The message becomes visible to every subscriber of the room. Messages are
// immutable once appended; there is no update or delete.
func (l *MessageLog) Append(_ context.Context, roomID string, msg chatmodel.Message) (string, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return "", ErrEmptyMessage
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg.ID = msgid.New()
	msg.RoomID = roomID
	l.messages[roomID] = append(l.messages[roomID], msg)

	snapshot := l.snapshotLocked(roomID)
	for _, sub := range l.watchers[roomID] {
		sub.push(snapshot)
	}

	return msg.ID, nil
}

// Messages returns a copy of the room's current message sequence in append
// order. A room with no messages yields an empty slice, not an error. The
// log does not validate room ids; authorization happens upstream.
func (l *MessageLog) Messages(_ context.Context, roomID string) []chatmodel.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked(roomID)
}

// Subscribe opens a snapshot-replacement subscription on the room's log.
// The full current message set is delivered immediately, then again on every
// append, until Close is called on the handle. Resubscribing replays the
// full state from scratch.
func (l *MessageLog) Subscribe(roomID string) *Subscription[[]chatmodel.Message] {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub.Add(1)
	sub := newSubscription[[]chatmodel.Message](l.buffer, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if watchers, ok := l.watchers[roomID]; ok {
			delete(watchers, id)
			if len(watchers) == 0 {
				delete(l.watchers, roomID)
			}
		}
	})

	if l.watchers[roomID] == nil {
		l.watchers[roomID] = make(map[uint64]*Subscription[[]chatmodel.Message])
	}
	l.watchers[roomID][id] = sub

	sub.push(l.snapshotLocked(roomID))
	return sub
}

func (l *MessageLog) snapshotLocked(roomID string) []chatmodel.Message {
	stored := l.messages[roomID]
	snapshot := make([]chatmodel.Message, len(stored))
	copy(snapshot, stored)
	return snapshot
}
