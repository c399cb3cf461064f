package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hsuanlin/recipetalk/backend/internal/middleware"
	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	chatservice "github.com/hsuanlin/recipetalk/backend/internal/service/chat"
	"github.com/hsuanlin/recipetalk/backend/pkg/utils"
)

type websocketUpgrader = websocket.Upgrader

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// inboundFrame is what a connected client may send. Only message sends come
// inbound; membership changes go through the REST routes.
type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// outboundFrame carries snapshot-replacement updates to the client: the full
// message set, the room metadata, or a user-visible notice.
type outboundFrame struct {
	Type     string              `json:"type"`
	Messages []chatmodel.Message `json:"messages,omitempty"`
	Room     *chatmodel.Room     `json:"room,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// handleWebSocket runs one chat session over a WebSocket connection. The
// session's snapshots become outbound frames; inbound "message" frames feed
// Send. Closing the connection tears the session down and releases both
// subscriptions.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	outbound := make(chan outboundFrame, 8)
	push := func(frame outboundFrame) {
		// Snapshot replacement: when the writer lags, dropping a frame is
		// fine because the next snapshot supersedes it.
		select {
		case outbound <- frame:
		default:
		}
	}

	session := chatservice.NewSession(actor, roomID, h.rooms, h.log, h.authz, chatservice.SessionHooks{
		OnMessages: func(messages []chatmodel.Message) {
			push(outboundFrame{Type: "messages", Messages: messages})
		},
		OnRoom: func(room chatmodel.Room) {
			push(outboundFrame{Type: "room", Room: &room})
		},
		OnNotice: func(noticeErr error) {
			push(outboundFrame{Type: "notice", Error: noticeErr.Error()})
		},
	}, h.logger)

	if err := session.Open(r.Context()); err != nil {
		status := "subscription failed"
		if errors.Is(err, chatservice.ErrAccessDenied) {
			status = "access denied"
		} else if errors.Is(err, chatservice.ErrRoomNotFound) {
			status = "room not found"
		}
		_ = conn.WriteJSON(outboundFrame{Type: "error", Error: status})
		return
	}

	writerDone := make(chan struct{})
	go func() {
		for {
			select {
			case frame := <-outbound:
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			case <-writerDone:
				return
			}
		}
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		if frame.Type == "message" {
			// Send already reports failures through OnNotice.
			_ = session.Send(r.Context(), frame.Text)
		}
	}

	session.Close()
	close(writerDone)
}
