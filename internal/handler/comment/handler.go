package comment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hsuanlin/recipetalk/backend/internal/middleware"
	"github.com/hsuanlin/recipetalk/backend/internal/service/rating"
	"github.com/hsuanlin/recipetalk/backend/pkg/utils"
)

// Handler exposes the recipe comment thread and rating aggregation.
type Handler struct {
	ratings *rating.Service
	logger  zerolog.Logger
}

// New creates the comment handler.
func New(ratings *rating.Service, logger zerolog.Logger) *Handler {
	return &Handler{ratings: ratings, logger: logger}
}

// RegisterRoutes wires the comment routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/recipes/{recipeID}/comments", h.handleGetComments)
	r.Post("/recipes/{recipeID}/comments", h.handleAddComment)
}

// handleGetComments returns the threaded comment view together with the
// recipe's rating summary, the shape the detail page renders from.
func (h *Handler) handleGetComments(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "recipeID")

	thread, err := h.ratings.Threaded(r.Context(), recipeID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	summary, err := h.ratings.Summary(r.Context(), recipeID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"comments":      thread,
		"averageRating": summary.AverageRating,
		"totalRatings":  summary.TotalRatings,
	})
}

// handleAddComment accepts the combined comment payload. A parentId
// dispatches to the reply path, where a rating is rejected outright rather
// than silently dropped.
func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	recipeID := chi.URLParam(r, "recipeID")

	var payload struct {
		Content  string `json:"content"`
		Rating   *int   `json:"rating"`
		ParentID string `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ParentID != "" {
		if payload.Rating != nil {
			utils.RespondError(w, http.StatusBadRequest, rating.ErrReplyWithRating.Error())
			return
		}
		reply, err := h.ratings.AddReply(r.Context(), recipeID, payload.ParentID, actor, payload.Content)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, reply)
		return
	}

	created, err := h.ratings.AddComment(r.Context(), recipeID, actor, payload.Content, payload.Rating)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rating.ErrEmptyComment), errors.Is(err, rating.ErrInvalidRating), errors.Is(err, rating.ErrReplyWithRating):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rating.ErrRecipeNotFound), errors.Is(err, rating.ErrCommentNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("comment handler failure")
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
