package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hsuanlin/recipetalk/backend/internal/middleware"
	chatmodel "github.com/hsuanlin/recipetalk/backend/internal/model/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
	chatservice "github.com/hsuanlin/recipetalk/backend/internal/service/chat"
	"github.com/hsuanlin/recipetalk/backend/pkg/utils"
)

// Handler exposes the chat engine over HTTP: the room directory, membership,
// message snapshots, and the live WebSocket/SSE feeds.
type Handler struct {
	rooms     *chatservice.RoomStore
	log       *chatservice.MessageLog
	authz     *chatservice.Authorizer
	directory *chatservice.Directory
	users     user.Store
	logger    zerolog.Logger
	upgrader  websocketUpgrader
}

// New creates the chat handler.
func New(rooms *chatservice.RoomStore, log *chatservice.MessageLog, authz *chatservice.Authorizer, directory *chatservice.Directory, users user.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		rooms:     rooms,
		log:       log,
		authz:     authz,
		directory: directory,
		users:     users,
		logger:    logger,
		upgrader:  newUpgrader(),
	}
}

// RegisterRoutes wires the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rooms", h.handleCreateRoom)
	r.Get("/rooms", h.handleListRooms)
	r.Get("/rooms/stream", h.handleStreamRooms)
	r.Get("/rooms/{roomID}", h.handleGetRoom)
	r.Post("/rooms/{roomID}/members", h.handleAddMember)
	r.Get("/rooms/{roomID}/messages", h.handleListMessages)
	r.Post("/rooms/{roomID}/messages", h.handleSendMessage)
	r.Get("/rooms/{roomID}/ws", h.handleWebSocket)
}

// handleCreateRoom provisions a room with the caller as its first member.
func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.directory.Create(r.Context(), payload.Title, actor)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, room)
}

// handleListRooms returns the directory snapshot, optionally narrowed by the
// q title filter.
func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.directory.List(r.Context())
	if term := r.URL.Query().Get("q"); term != "" {
		rooms = chatservice.Filter(rooms, term)
	}
	utils.RespondJSON(w, http.StatusOK, rooms)
}

// handleGetRoom returns one room's metadata to a reader with access.
func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.CurrentUser(r.Context())
	roomID := chi.URLParam(r, "roomID")

	room, err := h.rooms.Room(r.Context(), roomID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !h.authz.CanRead(r.Context(), roomID, actor.ID) {
		utils.RespondError(w, http.StatusForbidden, "not a member of this room")
		return
	}

	utils.RespondJSON(w, http.StatusOK, room)
}

// handleAddMember resolves the candidate by email and adds them to the room.
// The three membership failures stay distinct so the client can show each as
// its own message, matching the add-user dialog.
func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate, found := h.users.FindByEmail(payload.Email)
	if !found {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.authz.CanAdd(r.Context(), actor.ID, roomID, candidate); err != nil {
		h.respondServiceError(w, err)
		return
	}
	if err := h.rooms.AddMember(r.Context(), roomID, candidate); err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// handleListMessages returns the room's full message snapshot.
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.CurrentUser(r.Context())
	roomID := chi.URLParam(r, "roomID")

	if !h.authz.CanRead(r.Context(), roomID, actor.ID) {
		utils.RespondError(w, http.StatusForbidden, "not a member of this room")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.log.Messages(r.Context(), roomID))
}

// handleSendMessage appends the message and then refreshes the room's
// last-message preview. The two writes are independent; when the preview
// update fails the message stays and the client is told about the stale
// preview instead of a rollback.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.authz.CanWrite(r.Context(), roomID, actor.ID) {
		utils.RespondError(w, http.StatusForbidden, "not a member of this room")
		return
	}

	msg := chatmodel.Message{
		UserID:       actor.ID,
		UserName:     actor.Name(),
		UserPhotoURL: actor.PhotoURL,
		Text:         payload.Text,
		Timestamp:    time.Now().UnixMilli(),
	}

	id, err := h.log.Append(r.Context(), roomID, msg)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	summary := chatmodel.LastMessage{
		Text:      msg.Text,
		UserName:  msg.UserName,
		Timestamp: msg.Timestamp,
	}
	if err := h.rooms.UpdateLastMessage(r.Context(), roomID, summary); err != nil {
		h.logger.Warn().Err(err).Str("room", roomID).Str("message", id).
			Msg("last-message preview not updated")
		utils.RespondJSON(w, http.StatusCreated, map[string]string{
			"id":      id,
			"warning": "message sent, room preview not updated",
		})
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// respondServiceError maps service sentinels onto HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatservice.ErrEmptyTitle), errors.Is(err, chatservice.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatservice.ErrRoomNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatservice.ErrAlreadyMember):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chatservice.ErrUnverifiedUser):
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chatservice.ErrAccessDenied):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error().Err(err).Msg("chat handler failure")
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
