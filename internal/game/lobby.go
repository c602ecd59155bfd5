package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/scythe504/wordrace-backend/internal"
)

// =============================================================================
// CONNECTION LIFECYCLE
// =============================================================================

// Connect binds nickName to t and admits the player into roomId, evicting
// them from any other room first. Errors are also reported to the client.
func (e *Engine) Connect(ctx context.Context, t internal.Transport, roomId, nickName string) error {
	roomId = strings.TrimSpace(roomId)
	nickName = strings.TrimSpace(nickName)

	if roomId == "" || nickName == "" {
		err := internal.InvalidRequest("roomId and nickname are required")
		e.logger.Warn().Str("conn", t.ID()).Msg("[Connect] missing handshake fields, closing")
		e.sendError(t, err)
		if cerr := t.Close(); cerr != nil {
			e.logger.Debug().Err(cerr).Str("conn", t.ID()).Msg("[Connect] close failed")
		}
		return err
	}

	if err := e.connect(ctx, t, roomId, nickName); err != nil {
		e.logger.Warn().Err(err).Str("room", roomId).Str("nick", nickName).Msg("[Connect] join failed")
		e.sendError(t, err)
		return err
	}
	return nil
}

func (e *Engine) connect(ctx context.Context, t internal.Transport, roomId, nickName string) error {
	previousId, _, err := e.store.Get(ctx, internal.PlayerSocketKey(nickName))
	if err != nil {
		return internal.StoreError("get socket binding", err)
	}
	if err := e.store.Set(ctx, internal.PlayerSocketKey(nickName), t.ID()); err != nil {
		return internal.StoreError("bind socket", err)
	}

	exists, err := e.rooms.Exists(ctx, roomId)
	if err != nil {
		return err
	}
	if !exists {
		return internal.NewError(internal.KindRoomNotFound, fmt.Sprintf("Room %s not found", roomId))
	}

	currentRoom, inRoom, err := e.store.Get(ctx, internal.PlayerCurrentRoomKey(nickName))
	if err != nil {
		return internal.StoreError("get current room", err)
	}

	if inRoom && currentRoom == roomId {
		// Same room: state is untouched, the new transport only starts
		// receiving the room's events.
		e.logger.Info().Str("room", roomId).Str("nick", nickName).Msg("[Connect] already in room, no-op")
		e.gateway.Join(roomId, t)
		e.sendSnapshot(ctx, t, roomId)
		return nil
	}

	if inRoom {
		e.logger.Info().Str("from", currentRoom).Str("to", roomId).Str("nick", nickName).Msg("[Connect] switching rooms")
		if err := e.evict(ctx, currentRoom, nickName, t, previousId); err != nil {
			return err
		}
	}

	// The pointer goes first so a sweep never sees the new membership
	// without it.
	if err := e.store.Set(ctx, internal.PlayerCurrentRoomKey(nickName), roomId); err != nil {
		return internal.StoreError("set current room", err)
	}
	if err := e.store.SAdd(ctx, internal.RoomPlayersKey(roomId), nickName); err != nil {
		return internal.StoreError("add member", err)
	}
	if err := e.store.ZAdd(ctx, internal.RoomLeaderBoardKey(roomId), 0, nickName); err != nil {
		return internal.StoreError("zero score", err)
	}
	e.gateway.Join(roomId, t)

	e.send(t, internal.Message[any]{
		Type: internal.EventRoomJoined,
		Data: internal.RoomJoinedData{RoomId: roomId, Message: "Successfully joined room"},
	})
	e.broadcast(roomId, internal.NewGameEvent(internal.EventPlayerJoined, roomId, nickName,
		fmt.Sprintf("%s has joined the room", nickName)))

	occupancy, err := e.occupancyMessage(ctx, roomId)
	if err != nil {
		return err
	}
	e.broadcast(roomId, occupancy)

	e.sendSnapshot(ctx, t, roomId)
	e.broadcastLeaderboard(ctx, roomId)

	size := occupancy.Data.(internal.RoomSizeData).NumberOfPlayers
	e.logger.Info().Str("room", roomId).Str("nick", nickName).Int64("players", size).Msg("[Connect] player joined")

	return e.startRound(ctx, roomId, size)
}

// sendSnapshot sends the room's active word and leaderboard to one connection.
func (e *Engine) sendSnapshot(ctx context.Context, t internal.Transport, roomId string) {
	word, ok, err := e.ActiveWord(ctx, roomId)
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[sendSnapshot] active word lookup failed")
	} else if ok {
		e.send(t, wordMessage(roomId, word))
	}
	e.sendLeaderboard(ctx, t, roomId)
}

// Leave removes nickName from its room. Not being in a room is not an error.
func (e *Engine) Leave(ctx context.Context, nickName string) error {
	nickName = strings.TrimSpace(nickName)
	if nickName == "" {
		return internal.InvalidRequest("nickname is required")
	}
	_, err := e.removePlayer(ctx, nickName, "", "")
	return err
}

// Disconnect runs when t goes away. When the nickname has since been bound
// to a newer connection the player stays in the room.
func (e *Engine) Disconnect(ctx context.Context, t internal.Transport, nickName string) error {
	nickName = strings.TrimSpace(nickName)
	if nickName == "" {
		return internal.InvalidRequest("nickname is required")
	}

	boundId, bound, err := e.store.Get(ctx, internal.PlayerSocketKey(nickName))
	if err != nil {
		return internal.StoreError("get socket binding", err)
	}
	if bound && boundId != t.ID() {
		e.logger.Info().Str("nick", nickName).Str("conn", t.ID()).Msg("[Disconnect] stale connection, binding kept")
		return nil
	}

	removed, err := e.removePlayer(ctx, nickName, "", t.ID())
	if err != nil {
		return err
	}
	if !removed && bound {
		// Bound but never admitted, e.g. the room did not exist.
		if _, err := e.store.CompareAndDelete(ctx, internal.PlayerSocketKey(nickName), t.ID()); err != nil {
			return internal.StoreError("clear socket binding", err)
		}
	}
	return nil
}

// removePlayer takes nickName out of its room and clears both bindings.
// A non-empty roomId names the room to remove from; when the player's
// current-room pointer names another room, only the membership in roomId is
// dropped and the bindings stay. A non-empty expectedId restricts removal to
// that connection's binding. It reports whether a removal happened.
func (e *Engine) removePlayer(ctx context.Context, nickName, roomId, expectedId string) (bool, error) {
	current, inRoom, err := e.store.Get(ctx, internal.PlayerCurrentRoomKey(nickName))
	if err != nil {
		return false, internal.StoreError("get current room", err)
	}

	boundId, bound, err := e.store.Get(ctx, internal.PlayerSocketKey(nickName))
	if err != nil {
		return false, internal.StoreError("get socket binding", err)
	}

	if roomId != "" && (!inRoom || current != roomId) {
		if err := e.dropStray(ctx, roomId, nickName, boundId); err != nil {
			return false, err
		}
		return true, nil
	}
	if !inRoom {
		return false, nil
	}
	roomId = current

	if expectedId != "" && bound && boundId != expectedId {
		return false, nil
	}

	if err := e.store.SRem(ctx, internal.RoomPlayersKey(roomId), nickName); err != nil {
		return false, internal.StoreError("remove member", err)
	}
	if err := e.store.ZRem(ctx, internal.RoomLeaderBoardKey(roomId), nickName); err != nil {
		return false, internal.StoreError("remove score", err)
	}
	if err := e.store.Del(ctx, internal.PlayerCurrentRoomKey(nickName), internal.PlayerSocketKey(nickName)); err != nil {
		return false, internal.StoreError("clear bindings", err)
	}

	if bound {
		if t, ok := e.gateway.Lookup(boundId); ok {
			e.gateway.Leave(roomId, t)
		}
	}

	e.logger.Info().Str("room", roomId).Str("nick", nickName).Msg("[removePlayer] player left")
	e.notifyLeft(ctx, roomId, nickName)
	return true, nil
}

// dropStray removes a membership the current-room pointer does not back,
// e.g. after two concurrent connects of one nickname to different rooms.
func (e *Engine) dropStray(ctx context.Context, roomId, nickName, boundId string) error {
	if err := e.store.SRem(ctx, internal.RoomPlayersKey(roomId), nickName); err != nil {
		return internal.StoreError("remove member", err)
	}
	if err := e.store.ZRem(ctx, internal.RoomLeaderBoardKey(roomId), nickName); err != nil {
		return internal.StoreError("remove score", err)
	}
	if boundId != "" {
		if t, ok := e.gateway.Lookup(boundId); ok {
			e.gateway.Leave(roomId, t)
		}
	}

	e.logger.Warn().Str("room", roomId).Str("nick", nickName).Msg("[dropStray] removed membership without a matching room pointer")
	e.notifyLeft(ctx, roomId, nickName)
	return nil
}

// evict drops nickName from roomId while keeping its bindings, used when the
// player moves to another room.
func (e *Engine) evict(ctx context.Context, roomId, nickName string, t internal.Transport, previousId string) error {
	if err := e.store.SRem(ctx, internal.RoomPlayersKey(roomId), nickName); err != nil {
		return internal.StoreError("remove member", err)
	}
	if err := e.store.ZRem(ctx, internal.RoomLeaderBoardKey(roomId), nickName); err != nil {
		return internal.StoreError("remove score", err)
	}

	e.gateway.Leave(roomId, t)
	if previousId != "" && previousId != t.ID() {
		if prev, ok := e.gateway.Lookup(previousId); ok {
			e.gateway.Leave(roomId, prev)
		}
	}

	e.notifyLeft(ctx, roomId, nickName)
	return nil
}

func (e *Engine) notifyLeft(ctx context.Context, roomId, nickName string) {
	e.broadcast(roomId, internal.NewGameEvent(internal.EventPlayerLeft, roomId, nickName,
		fmt.Sprintf("%s has left the room", nickName)))
	e.broadcastOccupancy(ctx, roomId)
	e.broadcastLeaderboard(ctx, roomId)
}
