package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
)

// SessionState tracks a session's lifecycle.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateSubscribing
	StateLive
	StateError
)

// String renders the state for logs.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionHooks carries the render callbacks of one connected client. Any nil
// hook is skipped. OnNotice is the user-visible failure path: nothing the
// session does fails silently.
type SessionHooks struct {
	OnMessages func([]chatmodel.Message)
	OnRoom     func(chatmodel.Room)
	OnNotice   func(error)
}

// Session is the per-client controller for one open room view. It holds the
// message-log and room-metadata subscriptions while live and releases them
// deterministically on Close. Reopening starts from a full snapshot again;
// there is no resumption cursor.
type Session struct {
	user   user.User
	roomID string
	rooms  *RoomStore
	log    *MessageLog
	authz  *Authorizer
	hooks  SessionHooks
	logger zerolog.Logger

	mu      sync.Mutex
	state   SessionState
	msgSub  *Subscription[[]chatmodel.Message]
	roomSub *Subscription[chatmodel.Room]
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSession builds a controller for the given user and room. Nothing is
// subscribed until Open.
func NewSession(u user.User, roomID string, rooms *RoomStore, log *MessageLog, authz *Authorizer, hooks SessionHooks, logger zerolog.Logger) *Session {
	if roomID == "" {
		roomID = chatmodel.GlobalRoomID
	}
	return &Session{
		user:   u,
		roomID: roomID,
		rooms:  rooms,
		log:    log,
		authz:  authz,
		hooks:  hooks,
		logger: logger.With().Str("room", roomID).Str("user", u.ID).Logger(),
		state:  StateDisconnected,
	}
}

// Open checks read access and, if allowed, subscribes to the room's message
// log and metadata. A denied user ends in the error state without ever
// subscribing.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLive || s.state == StateSubscribing {
		return ErrSessionOpen
	}
	s.state = StateSubscribing

	if !s.authz.CanRead(ctx, s.roomID, s.user.ID) {
		s.state = StateError
		return ErrAccessDenied
	}

	roomSub, err := s.rooms.Watch(s.roomID)
	if err != nil {
		s.state = StateError
		return err
	}

	s.roomSub = roomSub
	s.msgSub = s.log.Subscribe(s.roomID)
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.pump(s.msgSub, s.roomSub, s.done)

	s.state = StateLive
	s.logger.Debug().Msg("session live")
	return nil
}

// Send validates, appends to the log, then refreshes the room's last-message
// preview. The two writes are independent: when the preview update fails
// after a successful append, the message stays and the stale preview is
// reported, not rolled back. Either failure reaches OnNotice.
func (s *Session) Send(ctx context.Context, text string) error {
	if !s.authz.CanWrite(ctx, s.roomID, s.user.ID) {
		s.notify(ErrAccessDenied)
		return ErrAccessDenied
	}

	msg := chatmodel.Message{
		UserID:       s.user.ID,
		UserName:     s.user.Name(),
		UserPhotoURL: s.user.PhotoURL,
		Text:         text,
		Timestamp:    time.Now().UnixMilli(),
	}

	id, err := s.log.Append(ctx, s.roomID, msg)
	if err != nil {
		s.notify(err)
		return err
	}

	summary := chatmodel.LastMessage{
		Text:      strings.TrimSpace(text),
		UserName:  s.user.Name(),
		Timestamp: msg.Timestamp,
	}
	if err := s.rooms.UpdateLastMessage(ctx, s.roomID, summary); err != nil {
		// The message is already durable; only the preview is stale.
		s.logger.Warn().Err(err).Str("message", id).Msg("last-message preview not updated")
		s.notify(err)
	}

	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close releases both subscriptions and stops the render pump. The session
// may be opened again afterwards; it restarts from a full snapshot.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state != StateLive {
		s.state = StateDisconnected
		s.mu.Unlock()
		return
	}
	msgSub, roomSub, done := s.msgSub, s.roomSub, s.done
	s.msgSub, s.roomSub, s.done = nil, nil, nil
	s.state = StateDisconnected
	s.mu.Unlock()

	msgSub.Close()
	roomSub.Close()
	close(done)
	s.wg.Wait()
	s.logger.Debug().Msg("session closed")
}

func (s *Session) pump(msgSub *Subscription[[]chatmodel.Message], roomSub *Subscription[chatmodel.Room], done chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case snapshot := <-msgSub.Updates():
			if s.hooks.OnMessages != nil {
				s.hooks.OnMessages(snapshot)
			}
		case room := <-roomSub.Updates():
			if s.hooks.OnRoom != nil {
				s.hooks.OnRoom(room)
			}
		case <-done:
			return
		}
	}
}

func (s *Session) notify(err error) {
	if s.hooks.OnNotice != nil {
		s.hooks.OnNotice(err)
	}
}
