package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/scythe504/wordrace-backend/internal/words"
)

type BootstrapConfig struct {
	NumberOfRooms int
	RoomNames     []string
}

// Bootstrap prepares the store for a fresh process: every key other than
// the rooms hash and the word pool is dropped, then rooms and words are
// filled in if they are missing.
func Bootstrap(ctx context.Context, s store.Store, rooms *Registry, supply *words.Supply, src words.Source, cfg BootstrapConfig, logger zerolog.Logger) error {
	purged, err := store.Purge(ctx, s, internal.RoomsKey, internal.WordsKey)
	if err != nil {
		return internal.StoreError("startup purge", err)
	}
	logger.Info().Int("keys", purged).Msg("[Bootstrap] purged stale session state")

	created, err := rooms.EnsureRooms(ctx, cfg.NumberOfRooms, cfg.RoomNames)
	if err != nil {
		return fmt.Errorf("create rooms: %w", err)
	}
	if created > 0 {
		logger.Info().Int("rooms", created).Msg("[Bootstrap] created rooms")
	}

	seeded, err := supply.Seed(ctx, src)
	if err != nil {
		return fmt.Errorf("seed words: %w", err)
	}
	if seeded > 0 {
		logger.Info().Int("words", seeded).Msg("[Bootstrap] seeded word pool")
	}

	size, err := supply.Size(ctx)
	if err != nil {
		return err
	}
	if size == 0 {
		logger.Warn().Msg("[Bootstrap] word pool is empty, rounds cannot start")
	}
	return nil
}
