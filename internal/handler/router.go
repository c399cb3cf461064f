package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	chathandler "github.com/hsuanlin/recipetalk/backend/internal/handler/chat"
	commenthandler "github.com/hsuanlin/recipetalk/backend/internal/handler/comment"
	userhandler "github.com/hsuanlin/recipetalk/backend/internal/handler/user"
	middlewarePkg "github.com/hsuanlin/recipetalk/backend/internal/middleware"
	usermodel "github.com/hsuanlin/recipetalk/backend/internal/model/user"
	chatservice "github.com/hsuanlin/recipetalk/backend/internal/service/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/service/rating"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(users usermodel.Store, rooms *chatservice.RoomStore, log *chatservice.MessageLog, authz *chatservice.Authorizer, directory *chatservice.Directory, ratings *rating.Service, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(rooms, log, authz, directory, users, logger)
	userHandler := userhandler.New(users)
	commentHandler := commenthandler.New(ratings, logger)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.Identity(users))

		chatHandler.RegisterRoutes(api)
		userHandler.RegisterRoutes(api)
		commentHandler.RegisterRoutes(api)
	})

	return r
}
