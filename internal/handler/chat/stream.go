package chat

import (
	"net/http"

	"github.com/hsuanlin/recipetalk/backend/pkg/utils"
)

// handleStreamRooms pushes room-list snapshots as Server-Sent Events for the
// directory view. Each event carries the full current list; the subscription
// is released when the client disconnects.
func (h *Handler) handleStreamRooms(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	sub := h.directory.Watch()
	defer sub.Close()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case rooms := <-sub.Updates():
			utils.SendSSEEvent(w, flusher, "rooms", rooms)
		}
	}
}
