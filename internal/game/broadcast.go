package game

import (
	"context"

	"github.com/scythe504/wordrace-backend/internal"
)

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

// Broadcasts are fire-and-forget: the gateway isolates each connection's
// send and the engine never waits on delivery.

func (e *Engine) broadcast(roomId string, msg internal.Message[any]) {
	e.logger.Debug().Str("room", roomId).Str("type", msg.Type).Msg("[Broadcast]")
	e.gateway.Broadcast(roomId, msg)
}

func (e *Engine) send(t internal.Transport, msg internal.Message[any]) {
	if t == nil {
		return
	}
	e.gateway.Send(t, msg)
}

func (e *Engine) sendError(t internal.Transport, err error) {
	e.send(t, internal.Message[any]{
		Type: internal.EventError,
		Data: internal.ErrorData{
			Message: internal.ClientMessage(err),
			Kind:    internal.KindOf(err),
		},
	})
}

func (e *Engine) occupancyMessage(ctx context.Context, roomId string) (internal.Message[any], error) {
	size, err := e.rooms.Size(ctx, roomId)
	if err != nil {
		return internal.Message[any]{}, err
	}
	return internal.Message[any]{
		Type: internal.EventNumberOfPlayers,
		Data: internal.RoomSizeData{RoomId: roomId, NumberOfPlayers: size},
	}, nil
}

func (e *Engine) broadcastOccupancy(ctx context.Context, roomId string) {
	msg, err := e.occupancyMessage(ctx, roomId)
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[broadcastOccupancy] size lookup failed")
		return
	}
	e.broadcast(roomId, msg)
}

func (e *Engine) leaderboardMessage(ctx context.Context, roomId string) (internal.Message[any], error) {
	board, err := e.GetLeaderboard(ctx, roomId)
	if err != nil {
		return internal.Message[any]{}, err
	}
	return internal.Message[any]{
		Type: internal.EventLeaderBoard,
		Data: internal.LeaderBoardData{RoomId: roomId, LeaderBoard: board},
	}, nil
}

func (e *Engine) broadcastLeaderboard(ctx context.Context, roomId string) {
	msg, err := e.leaderboardMessage(ctx, roomId)
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[broadcastLeaderboard] leaderboard lookup failed")
		return
	}
	e.broadcast(roomId, msg)
}

func (e *Engine) sendLeaderboard(ctx context.Context, t internal.Transport, roomId string) {
	msg, err := e.leaderboardMessage(ctx, roomId)
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[sendLeaderboard] leaderboard lookup failed")
		return
	}
	e.send(t, msg)
}

func (e *Engine) sendRank(ctx context.Context, t internal.Transport, roomId, nickName string) {
	rank, err := e.GetPlayerRank(ctx, roomId, nickName)
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Str("nick", nickName).Msg("[sendRank] rank lookup failed")
		return
	}
	e.send(t, internal.Message[any]{
		Type: internal.EventRank,
		Data: internal.RankData{RoomId: roomId, NickName: nickName, Rank: rank},
	})
}

func wordMessage(roomId, word string) internal.Message[any] {
	return internal.Message[any]{
		Type: internal.EventRandomWord,
		Data: internal.WordData{RoomId: roomId, Word: word},
	}
}
