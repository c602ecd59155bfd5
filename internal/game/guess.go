package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/utils"
)

// =============================================================================
// WORD SUBMISSION
// =============================================================================

// SubmitWord checks candidate against the room's active word. Only the
// submitter whose compare-and-delete clears the word wins the round; every
// later submission of the same word sees it as a mismatch.
func (e *Engine) SubmitWord(ctx context.Context, nickName, candidate string) (internal.SubmitResult, error) {
	nickName = strings.TrimSpace(nickName)
	cleaned := utils.NormalizeWord(candidate)
	if nickName == "" || cleaned == "" {
		return internal.SubmitResult{}, internal.InvalidRequest("word and nickname are required")
	}

	roomId, ok, err := e.store.Get(ctx, internal.PlayerCurrentRoomKey(nickName))
	if err != nil {
		return internal.SubmitResult{}, internal.StoreError("get current room", err)
	}
	if !ok {
		return internal.SubmitResult{}, internal.ErrPlayerNotInRoom
	}

	target, ok, err := e.ActiveWord(ctx, roomId)
	if err != nil {
		return internal.SubmitResult{}, err
	}
	if !ok {
		return internal.SubmitResult{}, internal.ErrNoActiveWord
	}

	miss := internal.SubmitResult{Success: false, RoomId: roomId, NickName: nickName}
	if cleaned != target {
		e.logger.Debug().Str("room", roomId).Str("nick", nickName).Msg("[SubmitWord] incorrect guess")
		return miss, nil
	}

	claimed, err := e.store.CompareAndDelete(ctx, internal.RoomCurrentWordKey(roomId), target)
	if err != nil {
		return internal.SubmitResult{}, internal.StoreError("claim active word", err)
	}
	if !claimed {
		e.logger.Info().Str("room", roomId).Str("nick", nickName).Msg("[SubmitWord] word already claimed")
		return miss, nil
	}

	if _, scored, err := e.store.ZIncrBy(ctx, internal.RoomLeaderBoardKey(roomId), 1, nickName); err != nil {
		return internal.SubmitResult{}, internal.StoreError("increment score", err)
	} else if !scored {
		// Left the room between the lookup and the claim; the round is
		// still won but there is no score to credit.
		e.logger.Warn().Str("room", roomId).Str("nick", nickName).Msg("[SubmitWord] winner has no score record")
	}

	e.logger.Info().Str("room", roomId).Str("nick", nickName).Msg("[SubmitWord] correct guess")
	return internal.SubmitResult{Success: true, RoomId: roomId, Winner: nickName}, nil
}

// handleSubmitWord announces the outcome of a submission to the room.
func (e *Engine) handleSubmitWord(ctx context.Context, c Client, candidate string) error {
	result, err := e.SubmitWord(ctx, c.NickName, candidate)
	if err != nil {
		return err
	}
	roomId := result.RoomId

	if !result.Success {
		e.broadcast(roomId, internal.NewGameEvent(internal.EventWordNotMatch, roomId, c.NickName,
			fmt.Sprintf("%s guessed wrong", c.NickName)))
		e.sendRank(ctx, c.Transport, roomId, c.NickName)
		return nil
	}

	e.broadcast(roomId, internal.NewGameEvent(internal.EventWordMatch, roomId, result.Winner,
		fmt.Sprintf("%s guessed the word", result.Winner)))
	e.broadcastLeaderboard(ctx, roomId)

	score, _, err := e.store.ZScore(ctx, internal.RoomLeaderBoardKey(roomId), result.Winner)
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[handleSubmitWord] score lookup failed")
	} else {
		e.send(c.Transport, internal.Message[any]{
			Type: internal.EventScore,
			Data: internal.ScoreData{RoomId: roomId, NickName: result.Winner, Score: int64(score)},
		})
	}

	refillErr := e.refillWord(ctx, roomId)
	e.sendRank(ctx, c.Transport, roomId, result.Winner)
	return refillErr
}
