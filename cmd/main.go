package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/logger/pkg/logger"
	"github.com/cwrk-planet/watch-service/config"
	"github.com/cwrk-planet/watch-service/internal/auth"
	"github.com/cwrk-planet/watch-service/internal/postgres"
	"github.com/cwrk-planet/watch-service/internal/registry"
	"github.com/cwrk-planet/watch-service/internal/service"
	httpx "github.com/cwrk-planet/watch-service/internal/transport/http"
	"github.com/cwrk-planet/watch-service/internal/transport/ws"

	"github.com/redis/go-redis/v9"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting watch-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- redis (сессии auth-сервиса, только чтение) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(pool)
	partRepo := postgres.NewParticipantRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	inviteRepo := postgres.NewInviteRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// --- session registry & token validation ---
	reg := registry.New()
	tokens := auth.NewSessionValidator(rdb, userRepo)

	// --- services ---
	sweeper := service.NewSweeper(roomRepo, partRepo, reg, cfg.InactiveAfter(), cfg.GhostGrace())
	roomSvc := service.NewRoomService(roomRepo, catalogRepo, sweeper, cfg.Rooms.DefaultMaxParticipants)
	memberSvc := service.NewMemberService(roomRepo, partRepo, inviteRepo, userRepo)
	playbackSvc := service.NewPlaybackService(roomRepo, partRepo)
	chatSvc := service.NewChatService(roomRepo, partRepo, chatRepo, service.NewCooldownTable())

	// --- WS Hub, Evictor, Server ---
	hub := ws.NewHub()
	evictor := ws.NewEvictor(hub, reg)
	memberSvc.SetEvictor(evictor)
	playbackSvc.SetEvictor(evictor)
	wsServer := ws.NewServer(hub, reg, evictor,
		roomSvc, memberSvc, playbackSvc, chatSvc, tokens, cfg.PingEvery())

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, chatSvc, tokens, wsServer)
	router := httpx.NewRouter(handler, tokens, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
