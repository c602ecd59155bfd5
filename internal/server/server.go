package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal"
)

// RoomLister is the read-only room query the HTTP surface serves.
type RoomLister interface {
	Rooms(ctx context.Context) ([]internal.Room, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	rooms          RoomLister
	store          Pinger
	ws             http.Handler
	logger         zerolog.Logger
	allowedOrigins []string
}

type Config struct {
	Port           int
	AllowedOrigins []string
}

func New(rooms RoomLister, store Pinger, ws http.Handler, logger zerolog.Logger, allowedOrigins []string) *Server {
	return &Server{
		rooms:          rooms,
		store:          store,
		ws:             ws,
		logger:         logger.With().Str("component", "http").Logger(),
		allowedOrigins: allowedOrigins,
	}
}

func NewServer(cfg Config, rooms RoomLister, store Pinger, ws http.Handler, logger zerolog.Logger) *http.Server {
	s := New(rooms, store, ws, logger, cfg.AllowedOrigins)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
