package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scythe504/wordrace-backend/internal"
)

// =============================================================================
// EVENT DISPATCH
// =============================================================================

func (e *Engine) routes() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		internal.EventSubmitWord:  e.onSubmitWord,
		internal.EventChat:        e.onChat,
		internal.EventLeaveRoom:   e.onLeaveRoom,
		internal.EventGetRoomSize: e.onGetRoomSize,
	}
}

// Dispatch decodes one raw client frame and runs its handler. Any error or
// panic is turned into an error event for that client only.
func (e *Engine) Dispatch(ctx context.Context, t internal.Transport, nickName string, raw []byte) {
	var msgType string
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("type", msgType).Str("nick", nickName).Msg("[Dispatch] handler panicked")
			e.sendError(t, fmt.Errorf("panic: %v", r))
		}
	}()

	var baseMsg internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &baseMsg); err != nil {
		e.logger.Debug().Err(err).Str("nick", nickName).Msg("[Dispatch] malformed frame")
		e.sendError(t, internal.InvalidRequest("malformed message"))
		return
	}
	msgType = baseMsg.Type

	handler, ok := e.handlers[msgType]
	if !ok {
		e.logger.Debug().Str("type", msgType).Str("nick", nickName).Msg("[Dispatch] unknown event")
		e.sendError(t, internal.InvalidRequest(fmt.Sprintf("unknown event %q", msgType)))
		return
	}

	e.logger.Debug().Str("type", msgType).Str("nick", nickName).Msg("[Dispatch] received")
	if err := handler(ctx, Client{Transport: t, NickName: nickName}, baseMsg.Data); err != nil {
		e.logger.Warn().Err(err).Str("type", msgType).Str("nick", nickName).Msg("[Dispatch] handler failed")
		e.sendError(t, err)
	}
}

// decode unmarshals an optional payload; a missing payload yields the zero value.
func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, internal.InvalidRequest("malformed payload")
	}
	return v, nil
}

func (e *Engine) onSubmitWord(ctx context.Context, c Client, data json.RawMessage) error {
	payload, err := decode[internal.SubmitWordData](data)
	if err != nil {
		return err
	}
	return e.handleSubmitWord(ctx, c, payload.Word)
}

func (e *Engine) onChat(ctx context.Context, c Client, data json.RawMessage) error {
	payload, err := decode[internal.ChatData](data)
	if err != nil {
		return err
	}
	return e.Chat(ctx, c.NickName, payload.Message)
}

func (e *Engine) onLeaveRoom(ctx context.Context, c Client, _ json.RawMessage) error {
	if err := e.Leave(ctx, c.NickName); err != nil {
		return err
	}
	return c.Transport.Close()
}

func (e *Engine) onGetRoomSize(ctx context.Context, c Client, data json.RawMessage) error {
	payload, err := decode[internal.GetRoomSizeData](data)
	if err != nil {
		return err
	}
	msg, err := e.RoomSize(ctx, payload.RoomId)
	if err != nil {
		return err
	}
	e.send(c.Transport, msg)
	return nil
}

// Chat relays a message to everyone in the sender's room.
func (e *Engine) Chat(ctx context.Context, nickName, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return internal.InvalidRequest("message is required")
	}

	roomId, ok, err := e.store.Get(ctx, internal.PlayerCurrentRoomKey(nickName))
	if err != nil {
		return internal.StoreError("get current room", err)
	}
	if !ok {
		return internal.ErrPlayerNotInRoom
	}

	e.broadcast(roomId, internal.NewGameEvent(internal.EventChat, roomId, nickName, message))
	return nil
}

// RoomSize builds the occupancy reply for one room.
func (e *Engine) RoomSize(ctx context.Context, roomId string) (internal.Message[any], error) {
	roomId = strings.TrimSpace(roomId)
	if roomId == "" {
		return internal.Message[any]{}, internal.InvalidRequest("roomId is required")
	}
	exists, err := e.rooms.Exists(ctx, roomId)
	if err != nil {
		return internal.Message[any]{}, err
	}
	if !exists {
		return internal.Message[any]{}, internal.NewError(internal.KindRoomNotFound, fmt.Sprintf("Room %s not found", roomId))
	}
	return e.occupancyMessage(ctx, roomId)
}

// Rooms exposes the registry listing for the HTTP surface.
func (e *Engine) Rooms(ctx context.Context) ([]internal.Room, error) {
	return e.rooms.List(ctx)
}
