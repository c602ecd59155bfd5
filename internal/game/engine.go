// Package game is the room session engine: membership, the active word per
// room, scores, ranks and the liveness sweep. All shared state lives in a
// store.Store; the engine itself holds no per-room locks.
package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/store"
)

// WordPicker hands out a random word from the pool.
type WordPicker interface {
	Pick(ctx context.Context) (string, error)
}

type Options struct {
	MinPlayers    int
	SweepInterval time.Duration
	ProbeTimeout  time.Duration
}

func DefaultOptions() Options {
	return Options{
		MinPlayers:    internal.MinPlayersToStart,
		SweepInterval: internal.SweepInterval,
		ProbeTimeout:  internal.ProbeTimeout,
	}
}

type Engine struct {
	store    store.Store
	rooms    *Registry
	words    WordPicker
	gateway  internal.Gateway
	logger   zerolog.Logger
	opts     Options
	handlers map[string]HandlerFunc
}

func NewEngine(s store.Store, rooms *Registry, words WordPicker, gateway internal.Gateway, logger zerolog.Logger, opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.MinPlayers <= 0 {
		opts.MinPlayers = defaults.MinPlayers
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaults.SweepInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaults.ProbeTimeout
	}

	e := &Engine{
		store:   s,
		rooms:   rooms,
		words:   words,
		gateway: gateway,
		logger:  logger.With().Str("component", "engine").Logger(),
		opts:    opts,
	}
	e.handlers = e.routes()
	return e
}

// Client is the connection handle a dispatched event arrived on.
type Client struct {
	Transport internal.Transport
	NickName  string
}

// HandlerFunc handles one decoded client event.
type HandlerFunc func(ctx context.Context, c Client, data json.RawMessage) error
