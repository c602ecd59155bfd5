package game_test

import (
	"context"
	"testing"

	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRejectsBadFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		kind  internal.ErrorKind
	}{
		{"not json", `hello`, internal.KindInvalidRequest},
		{"unknown event", `{"type":"draw","data":{}}`, internal.KindInvalidRequest},
		{"bad payload", `{"type":"chat","data":"oops"}`, internal.KindInvalidRequest},
		{"empty chat", `{"type":"chat","data":{"message":" "}}`, internal.KindInvalidRequest},
		{"missing word", `{"type":"submit-word"}`, internal.KindInvalidRequest},
		{"unknown room size", `{"type":"get-room-size","data":{"roomId":"R9"}}`, internal.KindRoomNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, game.Options{})
			a := h.join(t, "c-a", "R1", "alice")
			a.reset()

			h.engine.Dispatch(context.Background(), a, "alice", []byte(tt.frame))

			msg, ok := a.last(internal.EventError)
			require.True(t, ok)
			assert.Equal(t, tt.kind, msg.Data.(internal.ErrorData).Kind)
			assert.False(t, a.isClosed())
		})
	}
}

func TestDispatchChat(t *testing.T) {
	h := newHarness(t, game.Options{MinPlayers: 10})
	a := h.join(t, "c-a", "R1", "alice")
	b := h.join(t, "c-b", "R1", "bob")
	other := h.join(t, "c-o", "R2", "olga")
	b.reset()
	other.reset()

	h.engine.Dispatch(context.Background(), a, "alice", []byte(`{"type":"chat","data":{"message":"hi all"}}`))

	msg, ok := b.last(internal.EventChat)
	require.True(t, ok)
	ev := msg.Data.(internal.GameEvent)
	assert.Equal(t, "hi all", ev.Message)
	assert.Equal(t, "alice", ev.NickName)
	assert.Equal(t, "R1", ev.RoomId)
	assert.Equal(t, internal.EventChat, ev.Type)
	assert.NotEmpty(t, ev.Id)

	assert.Zero(t, other.count(internal.EventChat), "chat stays inside the room")
}

func TestDispatchChatOutsideRoom(t *testing.T) {
	h := newHarness(t, game.Options{})
	tr := newFakeTransport("c-x")
	h.gateway.register(tr)

	h.engine.Dispatch(context.Background(), tr, "stranger", []byte(`{"type":"chat","data":{"message":"hello"}}`))

	msg, ok := tr.last(internal.EventError)
	require.True(t, ok)
	assert.Equal(t, internal.KindPlayerNotInRoom, msg.Data.(internal.ErrorData).Kind)
}

func TestDispatchGetRoomSize(t *testing.T) {
	h := newHarness(t, game.Options{MinPlayers: 10})
	a := h.join(t, "c-a", "R1", "alice")
	h.join(t, "c-b", "R1", "bob")
	a.reset()

	h.engine.Dispatch(context.Background(), a, "alice", []byte(`{"type":"get-room-size","data":{"roomId":"R1"}}`))

	assert.Equal(t, []string{internal.EventNumberOfPlayers}, a.types())
	msg, _ := a.last(internal.EventNumberOfPlayers)
	assert.Equal(t, internal.RoomSizeData{RoomId: "R1", NumberOfPlayers: 2}, msg.Data)
}

func TestDispatchLeaveRoomClosesTransport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.Options{MinPlayers: 10})
	a := h.join(t, "c-a", "R1", "alice")
	b := h.join(t, "c-b", "R1", "bob")
	b.reset()

	h.engine.Dispatch(ctx, a, "alice", []byte(`{"type":"leave-room"}`))

	assert.True(t, a.isClosed())
	assert.Equal(t, []string{"bob"}, h.members(t, "R1"))
	assert.Equal(t, 1, b.count(internal.EventPlayerLeft))

	// The read loop ending afterwards is harmless.
	require.NoError(t, h.engine.Disconnect(ctx, a, "alice"))
	assert.Equal(t, 1, b.count(internal.EventPlayerLeft))
}
