package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hsuanlin/recipetalk/backend/internal/config"
	"github.com/hsuanlin/recipetalk/backend/internal/handler"
	"github.com/hsuanlin/recipetalk/backend/internal/logger"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
	chatservice "github.com/hsuanlin/recipetalk/backend/internal/service/chat"
	"github.com/hsuanlin/recipetalk/backend/internal/service/rating"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; system environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		basicLog := logger.New("info")
		basicLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Log.Level)

	// Wire stores and services. The user store stands in for the external
	// profile document store until one is attached.
	userStore := user.NewMemoryStore(user.Seed())
	rooms := chatservice.NewRoomStore(cfg.Chat.GlobalRoomTitle, cfg.Chat.SnapshotBuffer)
	messageLog := chatservice.NewMessageLog(cfg.Chat.SnapshotBuffer)
	authz := chatservice.NewAuthorizer(rooms)
	directory := chatservice.NewDirectory(rooms)

	ratings := rating.NewService()
	for _, id := range seedRecipeIDs() {
		ratings.Register(ctx, id)
	}

	router := handler.NewRouter(userStore, rooms, messageLog, authz, directory, ratings, log)

	startServer(ctx, cfg.Server, router, log)
}

// seedRecipeIDs registers a few recipe documents so comment routes have
// targets in local runs. The recipe catalog itself lives in the external
// document store.
func seedRecipeIDs() []string {
	return []string{"r-braised-pork", "r-beef-noodles", "r-mapo-tofu"}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("recipetalk backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
