package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal/config"
	"github.com/scythe504/wordrace-backend/internal/game"
	"github.com/scythe504/wordrace-backend/internal/logger"
	"github.com/scythe504/wordrace-backend/internal/server"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/scythe504/wordrace-backend/internal/websockets"
	"github.com/scythe504/wordrace-backend/internal/words"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("[main] server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	src, closeSource, err := openWordSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	rooms := game.NewRegistry(s)
	supply := words.NewSupply(s)

	bootCfg := game.BootstrapConfig{
		NumberOfRooms: cfg.Game.NumberOfRooms,
		RoomNames:     cfg.Game.RoomNames,
	}
	if err := game.Bootstrap(ctx, s, rooms, supply, src, bootCfg, log.With().Str("component", "bootstrap").Logger()); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	hubOpts := websockets.DefaultOptions()
	hubOpts.AllowedOrigins = cfg.Server.AllowedOrigins
	hubOpts.EventsPerSecond = cfg.Game.EventsPerSecond
	hubOpts.EventBurst = cfg.Game.EventBurst
	hub := websockets.NewHub(log.With().Str("component", "websockets").Logger(), hubOpts)

	engine := game.NewEngine(s, rooms, supply, hub, log.With().Str("component", "engine").Logger(), game.Options{
		MinPlayers:    cfg.Game.MinPlayers,
		SweepInterval: cfg.Game.SweepInterval,
		ProbeTimeout:  cfg.Game.ProbeTimeout,
	})

	httpServer := server.NewServer(server.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, engine, s, hub.Serve(engine), log)

	livenessDone := make(chan struct{})
	go func() {
		defer close(livenessDone)
		engine.RunLiveness(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("store", cfg.Store.Driver).
			Str("words", cfg.Words.Source).
			Msg("[main] listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("[main] shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			stop()
			<-livenessDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[main] http shutdown failed")
	}
	<-livenessDone

	log.Info().Msg("[main] server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		return store.NewMemory(), nil
	}

	s := store.NewRedis(store.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}
	return s, nil
}

func openWordSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) (words.Source, func(), error) {
	if cfg.Words.Source != config.WordsPostgres {
		return words.NewFileSource(cfg.Words.File), func() {}, nil
	}

	if err := words.Migrate(cfg.Words.DatabaseURL, log.With().Str("component", "migrate").Logger()); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.Words.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	return words.NewPostgresSource(pool), pool.Close, nil
}
