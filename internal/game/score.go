package game

import (
	"context"

	"github.com/scythe504/wordrace-backend/internal"
)

// GetLeaderboard lists every scored player in the room by descending score.
// Rank is the 1-based position; equal scores keep the store's reverse-range
// order.
func (e *Engine) GetLeaderboard(ctx context.Context, roomId string) ([]internal.LeaderboardEntry, error) {
	members, err := e.store.ZRevRangeWithScores(ctx, internal.RoomLeaderBoardKey(roomId))
	if err != nil {
		return nil, internal.StoreError("read leaderboard", err)
	}

	board := make([]internal.LeaderboardEntry, 0, len(members))
	for idx, m := range members {
		board = append(board, internal.LeaderboardEntry{
			NickName: m.Member,
			Score:    int64(m.Score),
			Rank:     idx + 1,
		})
	}
	return board, nil
}

// GetPlayerRank returns the 1-based rank, or internal.Unranked when the
// player holds no score in the room.
func (e *Engine) GetPlayerRank(ctx context.Context, roomId, nickName string) (int, error) {
	rank, ok, err := e.store.ZRevRank(ctx, internal.RoomLeaderBoardKey(roomId), nickName)
	if err != nil {
		return internal.Unranked, internal.StoreError("read rank", err)
	}
	if !ok {
		return internal.Unranked, nil
	}
	return int(rank) + 1, nil
}
