package game

import (
	"context"

	"github.com/scythe504/wordrace-backend/internal"
)

// =============================================================================
// ROUND FLOW
// =============================================================================

// AssignWord picks a fresh word and makes it the room's active word,
// replacing any word already active.
func (e *Engine) AssignWord(ctx context.Context, roomId string) (string, error) {
	word, err := e.words.Pick(ctx)
	if err != nil {
		return "", err
	}
	if err := e.store.Set(ctx, internal.RoomCurrentWordKey(roomId), word); err != nil {
		return "", internal.StoreError("set active word", err)
	}
	e.logger.Info().Str("room", roomId).Msg("[AssignWord] new active word")
	return word, nil
}

// ActiveWord returns the room's current word, if a round is in progress.
func (e *Engine) ActiveWord(ctx context.Context, roomId string) (string, bool, error) {
	word, ok, err := e.store.Get(ctx, internal.RoomCurrentWordKey(roomId))
	if err != nil {
		return "", false, internal.StoreError("get active word", err)
	}
	return word, ok, nil
}

// startRound opens a round once the room holds enough players and has no
// active word. Concurrent callers race on SetNX; only the one that sets the
// word announces it.
func (e *Engine) startRound(ctx context.Context, roomId string, players int64) error {
	if players < int64(e.opts.MinPlayers) {
		return nil
	}
	word, claimed, err := e.claimWord(ctx, roomId)
	if err != nil || !claimed {
		return err
	}

	e.logger.Info().Str("room", roomId).Int64("players", players).Msg("[startRound] round started")
	e.broadcast(roomId, internal.NewGameEvent(internal.EventStartGame, roomId, "", "Game started"))
	e.broadcast(roomId, wordMessage(roomId, word))
	return nil
}

// refillWord replaces the word just claimed by a winner. A word set in the
// meantime by a round start is left alone.
func (e *Engine) refillWord(ctx context.Context, roomId string) error {
	word, claimed, err := e.claimWord(ctx, roomId)
	if err != nil || !claimed {
		return err
	}
	e.broadcast(roomId, wordMessage(roomId, word))
	return nil
}

// claimWord makes a fresh word active only while the room has none.
func (e *Engine) claimWord(ctx context.Context, roomId string) (string, bool, error) {
	if _, active, err := e.ActiveWord(ctx, roomId); err != nil || active {
		return "", false, err
	}

	word, err := e.words.Pick(ctx)
	if err != nil {
		return "", false, err
	}
	set, err := e.store.SetNX(ctx, internal.RoomCurrentWordKey(roomId), word)
	if err != nil {
		return "", false, internal.StoreError("claim active word", err)
	}
	return word, set, nil
}
