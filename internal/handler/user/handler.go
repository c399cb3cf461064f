package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	usermodel "github.com/hsuanlin/recipetalk/backend/internal/model/user"
	"github.com/hsuanlin/recipetalk/backend/pkg/utils"
)

// Handler exposes profile lookups; the add-member dialog resolves candidates
// by email through it.
type Handler struct {
	users usermodel.Store
}

// New creates the user handler.
func New(users usermodel.Store) *Handler {
	return &Handler{users: users}
}

// RegisterRoutes wires the user routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.handleListUsers)
}

// handleListUsers lists profiles, or resolves a single one when the email
// query parameter is present.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if email := r.URL.Query().Get("email"); email != "" {
		u, ok := h.users.FindByEmail(email)
		if !ok {
			utils.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.RespondJSON(w, http.StatusOK, u)
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.users.List())
}
