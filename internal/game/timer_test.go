package game_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/game"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	mock.Mock
	id string
}

func (m *mockTransport) ID() string { return m.id }

func (m *mockTransport) Send(msg any) error {
	return m.Called(msg).Error(0)
}

func (m *mockTransport) Probe(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTransport) Close() error {
	return m.Called().Error(0)
}

const testProbeTimeout = 50 * time.Millisecond

func TestSweepRemovesUnresponsiveAndKeepsResponsive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.Options{ProbeTimeout: testProbeTimeout, MinPlayers: 10})

	alive := &mockTransport{id: "c-alive"}
	alive.On("Send", mock.Anything).Return(nil)
	alive.On("Probe", mock.Anything).Return(nil)

	dead := &mockTransport{id: "c-dead"}
	dead.On("Send", mock.Anything).Return(nil)
	dead.On("Probe", mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.DeadlineExceeded)
	dead.On("Close").Return(nil).Once()

	for _, tr := range []*mockTransport{alive, dead} {
		h.gateway.register(tr)
	}
	require.NoError(t, h.engine.Connect(ctx, alive, "R1", "alive"))
	require.NoError(t, h.engine.Connect(ctx, dead, "R1", "dead"))

	start := time.Now()
	h.engine.Sweep(ctx)
	assert.Less(t, time.Since(start), time.Second, "probe wait is bounded")

	assert.Equal(t, []string{"alive"}, h.members(t, "R1"))
	_, ok := h.score(t, "R1", "dead")
	assert.False(t, ok)

	dead.AssertCalled(t, "Close")
	alive.AssertNotCalled(t, "Close")

	var sawLeave, sawBoard bool
	for _, call := range alive.Calls {
		if call.Method != "Send" {
			continue
		}
		msg := call.Arguments.Get(0).(internal.Message[any])
		switch msg.Type {
		case internal.EventPlayerLeft:
			sawLeave = msg.Data.(internal.GameEvent).NickName == "dead"
		case internal.EventLeaderBoard:
			sawBoard = true
		}
	}
	assert.True(t, sawLeave, "remaining players are told who left")
	assert.True(t, sawBoard)
}

func TestSweepRemovesMembersWithoutLiveConnection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.Options{ProbeTimeout: testProbeTimeout, MinPlayers: 10})

	ghost := newFakeTransport("c-ghost")
	h.gateway.register(ghost)
	require.NoError(t, h.engine.Connect(ctx, ghost, "R1", "ghost"))
	h.gateway.unregister(ghost)

	// A member left behind by a previous process, with no binding at all.
	require.NoError(t, h.store.SAdd(ctx, internal.RoomPlayersKey("R2"), "orphan"))
	require.NoError(t, h.store.ZAdd(ctx, internal.RoomLeaderBoardKey("R2"), 0, "orphan"))
	require.NoError(t, h.store.Set(ctx, internal.PlayerCurrentRoomKey("orphan"), "R2"))

	h.engine.Sweep(ctx)

	assert.Empty(t, h.members(t, "R1"))
	assert.Empty(t, h.members(t, "R2"))
}

func TestSweepKeepsGoingAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{Memory: store.NewMemory(), failMembersOf: internal.RoomPlayersKey("R1")}
	require.NoError(t, s.HSet(ctx, internal.RoomsKey, "R1", "Avalon-001"))
	require.NoError(t, s.HSet(ctx, internal.RoomsKey, "R2", "Asgard-002"))

	gw := newFakeGateway()
	e := game.NewEngine(s, game.NewRegistry(s), &seqPicker{}, gw, zerolog.Nop(),
		game.Options{ProbeTimeout: testProbeTimeout, MinPlayers: 10})

	dead := newFakeTransport("c-dead")
	dead.probe = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	gw.register(dead)
	require.NoError(t, e.Connect(ctx, dead, "R2", "dead"))

	e.Sweep(ctx)

	members, err := s.SMembers(ctx, internal.RoomPlayersKey("R2"))
	require.NoError(t, err)
	assert.Empty(t, members, "a failing room does not stop the sweep of the next one")
	assert.True(t, dead.isClosed())
}

func TestSweepClosesSupersededConnection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.Options{ProbeTimeout: testProbeTimeout, MinPlayers: 10})

	old := h.join(t, "c-old", "R1", "alice")
	old.probe = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	current := h.join(t, "c-new", "R1", "alice")
	require.True(t, h.gateway.inRoom("R1", old), "the older connection still receives room events")

	h.engine.Sweep(ctx)

	assert.True(t, old.isClosed())
	assert.False(t, h.gateway.inRoom("R1", old))

	assert.False(t, current.isClosed())
	assert.True(t, h.gateway.inRoom("R1", current))
	assert.Equal(t, []string{"alice"}, h.members(t, "R1"))
	bound, _, err := h.store.Get(ctx, internal.PlayerSocketKey("alice"))
	require.NoError(t, err)
	assert.Equal(t, "c-new", bound)

	// The closed connection's disconnect does not touch the newer binding.
	require.NoError(t, h.engine.Disconnect(ctx, old, "alice"))
	assert.Equal(t, []string{"alice"}, h.members(t, "R1"))
}

func TestSweepRepairsMembershipInTwoRooms(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.Options{ProbeTimeout: testProbeTimeout, MinPlayers: 10})

	a := h.join(t, "c-a", "R1", "alice")
	watcher := h.join(t, "c-w", "R2", "walt")
	watcher.reset()

	// Left over from two racing connects: alice also sits in R2.
	require.NoError(t, h.store.SAdd(ctx, internal.RoomPlayersKey("R2"), "alice"))
	require.NoError(t, h.store.ZAdd(ctx, internal.RoomLeaderBoardKey("R2"), 0, "alice"))

	h.engine.Sweep(ctx)

	assert.Equal(t, []string{"walt"}, h.members(t, "R2"))
	_, ok := h.score(t, "R2", "alice")
	assert.False(t, ok)

	assert.Equal(t, []string{"alice"}, h.members(t, "R1"), "the room the pointer names is kept")
	_, ok = h.score(t, "R1", "alice")
	assert.True(t, ok)
	room, _, err := h.store.Get(ctx, internal.PlayerCurrentRoomKey("alice"))
	require.NoError(t, err)
	assert.Equal(t, "R1", room)
	assert.False(t, a.isClosed())
	assert.True(t, h.gateway.inRoom("R1", a))

	left, ok := watcher.last(internal.EventPlayerLeft)
	require.True(t, ok)
	assert.Equal(t, "alice", left.Data.(internal.GameEvent).NickName)
}

func TestRunLivenessStopsOnCancel(t *testing.T) {
	h := newHarness(t, game.Options{SweepInterval: 10 * time.Millisecond, ProbeTimeout: testProbeTimeout})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.engine.RunLiveness(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("liveness loop did not stop")
	}
}

// flakyStore fails SMembers for one key.
type flakyStore struct {
	*store.Memory
	failMembersOf string
}

func (f *flakyStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if key == f.failMembersOf {
		return nil, assert.AnError
	}
	return f.Memory.SMembers(ctx, key)
}
