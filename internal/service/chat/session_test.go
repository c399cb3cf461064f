package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	chat "github.com/hsuanlin/recipetalk/backend/internal/service/chat"
)

type sessionEnv struct {
	rooms *chat.RoomStore
	log   *chat.MessageLog
	authz *chat.Authorizer
}

func newSessionEnv() sessionEnv {
	rooms := newRoomStore()
	return sessionEnv{
		rooms: rooms,
		log:   chat.NewMessageLog(1),
		authz: chat.NewAuthorizer(rooms),
	}
}

func (e sessionEnv) session(u, roomID string, hooks chat.SessionHooks) *chat.Session {
	return chat.NewSession(testUser(u, true), roomID, e.rooms, e.log, e.authz, hooks, zerolog.Nop())
}

func TestOpenDeniedNeverSubscribes(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()

	room, err := env.rooms.CreateRoom(ctx, "BBQ Night", testUser("alice", true))
	if err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}

	got := make(chan []chatmodel.Message, 1)
	s := env.session("bob", room.ID, chat.SessionHooks{
		OnMessages: func(messages []chatmodel.Message) { got <- messages },
	})

	if err := s.Open(ctx); !errors.Is(err, chat.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if s.State() != chat.StateError {
		t.Fatalf("expected error state, got %s", s.State())
	}

	select {
	case <-got:
		t.Fatal("denied session must not receive snapshots")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionLiveRendersSnapshots(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()

	messages := make(chan []chatmodel.Message, 8)
	s := env.session("alice", chatmodel.GlobalRoomID, chat.SessionHooks{
		OnMessages: func(snapshot []chatmodel.Message) { messages <- snapshot },
	})

	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer s.Close()

	if s.State() != chat.StateLive {
		t.Fatalf("expected live state, got %s", s.State())
	}

	if err := s.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	waitForText(t, messages, "hello")
}

func TestSendUpdatesLastMessagePreview(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()

	s := env.session("alice", chatmodel.GlobalRoomID, chat.SessionHooks{})
	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer s.Close()

	if err := s.Send(ctx, "  dinner at eight  "); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	room, err := env.rooms.Room(ctx, chatmodel.GlobalRoomID)
	if err != nil {
		t.Fatalf("Room err: %v", err)
	}
	if room.LastMessage == nil || room.LastMessage.Text != "dinner at eight" {
		t.Fatalf("unexpected last message: %+v", room.LastMessage)
	}
	if room.LastMessage.UserName != "alice" {
		t.Fatalf("unexpected preview sender: %q", room.LastMessage.UserName)
	}
}

func TestSendEmptyTextNotifies(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()

	notices := make(chan error, 1)
	s := env.session("alice", chatmodel.GlobalRoomID, chat.SessionHooks{
		OnNotice: func(err error) { notices <- err },
	})
	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer s.Close()

	if err := s.Send(ctx, "   "); !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	select {
	case err := <-notices:
		if !errors.Is(err, chat.ErrEmptyMessage) {
			t.Fatalf("unexpected notice: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a user-visible notice for the failed send")
	}

	if got := env.log.Messages(ctx, chatmodel.GlobalRoomID); len(got) != 0 {
		t.Fatalf("failed send must not append, got %d messages", len(got))
	}
}

func TestCloseThenReopenReplaysHistory(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()

	messages := make(chan []chatmodel.Message, 8)
	s := env.session("alice", chatmodel.GlobalRoomID, chat.SessionHooks{
		OnMessages: func(snapshot []chatmodel.Message) { messages <- snapshot },
	})

	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if err := s.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send err: %v", err)
	}
	waitForText(t, messages, "hello")

	s.Close()
	if s.State() != chat.StateDisconnected {
		t.Fatalf("expected disconnected state, got %s", s.State())
	}

	// Re-entering the view resubscribes from scratch and re-fetches the
	// full message set.
	if err := s.Open(ctx); err != nil {
		t.Fatalf("reopen err: %v", err)
	}
	defer s.Close()
	waitForText(t, messages, "hello")
}

func TestBBQNightScenario(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()
	alice := testUser("alice", true)
	bob := testUser("bob", true)

	// Alice creates the room and is its only member.
	room, err := env.rooms.CreateRoom(ctx, "BBQ Night", alice)
	if err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	if len(room.Members) != 1 || !room.IsMember(alice.ID) {
		t.Fatalf("expected members={alice}, got %+v", room.Members)
	}

	// Alice sends "hello"; a subscriber sees exactly one message and the
	// preview reflects it.
	aliceMessages := make(chan []chatmodel.Message, 8)
	aliceSession := env.session("alice", room.ID, chat.SessionHooks{
		OnMessages: func(snapshot []chatmodel.Message) { aliceMessages <- snapshot },
	})
	if err := aliceSession.Open(ctx); err != nil {
		t.Fatalf("alice Open err: %v", err)
	}
	defer aliceSession.Close()

	if err := aliceSession.Send(ctx, "hello"); err != nil {
		t.Fatalf("alice Send err: %v", err)
	}
	snapshot := waitForText(t, aliceMessages, "hello")
	if len(snapshot) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(snapshot))
	}

	got, err := env.rooms.Room(ctx, room.ID)
	if err != nil {
		t.Fatalf("Room err: %v", err)
	}
	if got.LastMessage == nil || got.LastMessage.Text != "hello" {
		t.Fatalf("expected lastMessage.text=hello, got %+v", got.LastMessage)
	}

	// Bob is verified and gets added by Alice; membership grows to two.
	if err := env.authz.CanAdd(ctx, alice.ID, room.ID, bob); err != nil {
		t.Fatalf("CanAdd err: %v", err)
	}
	if err := env.rooms.AddMember(ctx, room.ID, bob); err != nil {
		t.Fatalf("AddMember err: %v", err)
	}
	got, err = env.rooms.Room(ctx, room.ID)
	if err != nil {
		t.Fatalf("Room err: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(got.Members))
	}

	// Bob, now a member, sends "hi"; both messages arrive in append order.
	bobSession := env.session("bob", room.ID, chat.SessionHooks{})
	if err := bobSession.Open(ctx); err != nil {
		t.Fatalf("bob Open err: %v", err)
	}
	defer bobSession.Close()
	if err := bobSession.Send(ctx, "hi"); err != nil {
		t.Fatalf("bob Send err: %v", err)
	}

	final := waitForCount(t, aliceMessages, 2)
	if final[0].Text != "hello" || final[1].Text != "hi" {
		t.Fatalf("messages out of order: %q then %q", final[0].Text, final[1].Text)
	}
}

// waitForText consumes snapshots until one contains the text. Snapshots are
// full-state replacements, so skipping intermediates is fine.
func waitForText(t *testing.T, ch <-chan []chatmodel.Message, text string) []chatmodel.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case snapshot := <-ch:
			for _, msg := range snapshot {
				if msg.Text == text {
					return snapshot
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for message %q", text)
			return nil
		}
	}
}

func waitForCount(t *testing.T, ch <-chan []chatmodel.Message, n int) []chatmodel.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case snapshot := <-ch:
			if len(snapshot) >= n {
				return snapshot
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d messages", n)
			return nil
		}
	}
}
