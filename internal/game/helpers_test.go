package game_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/game"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/stretchr/testify/require"
)

// fakeTransport records everything sent to it and acks probes unless told otherwise.
type fakeTransport struct {
	id string

	mu     sync.Mutex
	msgs   []internal.Message[any]
	closed bool
	probe  func(ctx context.Context) error
}

func newFakeTransport(id string) *fakeTransport {
	return &fakeTransport{id: id}
}

func (f *fakeTransport) ID() string { return f.id }

func (f *fakeTransport) Send(msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := msg.(internal.Message[any]); ok {
		f.msgs = append(f.msgs, m)
	}
	return nil
}

func (f *fakeTransport) Probe(ctx context.Context) error {
	f.mu.Lock()
	probe := f.probe
	f.mu.Unlock()
	if probe == nil {
		return nil
	}
	return probe(ctx)
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) messages() []internal.Message[any] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]internal.Message[any](nil), f.msgs...)
}

func (f *fakeTransport) types() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.Type)
	}
	return out
}

func (f *fakeTransport) last(eventType string) (internal.Message[any], bool) {
	msgs := f.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == eventType {
			return msgs[i], true
		}
	}
	return internal.Message[any]{}, false
}

func (f *fakeTransport) count(eventType string) int {
	n := 0
	for _, m := range f.messages() {
		if m.Type == eventType {
			n++
		}
	}
	return n
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = nil
}

// fakeGateway is an in-process room fan-out keyed by transport id.
type fakeGateway struct {
	mu    sync.Mutex
	conns map[string]internal.Transport
	rooms map[string]map[string]internal.Transport
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		conns: make(map[string]internal.Transport),
		rooms: make(map[string]map[string]internal.Transport),
	}
}

func (g *fakeGateway) register(t internal.Transport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[t.ID()] = t
}

func (g *fakeGateway) unregister(t internal.Transport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, t.ID())
	for _, members := range g.rooms {
		delete(members, t.ID())
	}
}

func (g *fakeGateway) Lookup(id string) (internal.Transport, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.conns[id]
	return t, ok
}

func (g *fakeGateway) Join(roomId string, t internal.Transport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.rooms[roomId]
	if !ok {
		members = make(map[string]internal.Transport)
		g.rooms[roomId] = members
	}
	members[t.ID()] = t
}

func (g *fakeGateway) Leave(roomId string, t internal.Transport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms[roomId], t.ID())
}

func (g *fakeGateway) Members(roomId string) []internal.Transport {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]internal.Transport, 0, len(g.rooms[roomId]))
	for _, t := range g.rooms[roomId] {
		out = append(out, t)
	}
	return out
}

func (g *fakeGateway) inRoom(roomId string, t internal.Transport) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rooms[roomId][t.ID()]
	return ok
}

func (g *fakeGateway) Broadcast(roomId string, msg any) {
	g.mu.Lock()
	targets := make([]internal.Transport, 0, len(g.rooms[roomId]))
	for _, t := range g.rooms[roomId] {
		targets = append(targets, t)
	}
	g.mu.Unlock()

	for _, t := range targets {
		_ = t.Send(msg)
	}
}

func (g *fakeGateway) Send(t internal.Transport, msg any) {
	_ = t.Send(msg)
}

// seqPicker returns words in order and then reports an empty pool.
type seqPicker struct {
	mu    sync.Mutex
	words []string
}

func (p *seqPicker) Pick(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.words) == 0 {
		return "", internal.ErrNoWordsAvailable
	}
	w := p.words[0]
	p.words = p.words[1:]
	return w, nil
}

type harness struct {
	engine  *game.Engine
	store   *store.Memory
	gateway *fakeGateway
	rooms   *game.Registry
}

func newHarness(t *testing.T, opts game.Options, words ...string) *harness {
	t.Helper()
	s := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, s.HSet(ctx, internal.RoomsKey, "R1", "Avalon-001"))
	require.NoError(t, s.HSet(ctx, internal.RoomsKey, "R2", "Asgard-002"))

	gw := newFakeGateway()
	rooms := game.NewRegistry(s)
	e := game.NewEngine(s, rooms, &seqPicker{words: words}, gw, zerolog.Nop(), opts)
	return &harness{engine: e, store: s, gateway: gw, rooms: rooms}
}

// join opens a new registered transport and connects it.
func (h *harness) join(t *testing.T, connId, roomId, nickName string) *fakeTransport {
	t.Helper()
	tr := newFakeTransport(connId)
	h.gateway.register(tr)
	require.NoError(t, h.engine.Connect(context.Background(), tr, roomId, nickName))
	return tr
}

func (h *harness) members(t *testing.T, roomId string) []string {
	t.Helper()
	m, err := h.store.SMembers(context.Background(), internal.RoomPlayersKey(roomId))
	require.NoError(t, err)
	return m
}

func (h *harness) score(t *testing.T, roomId, nickName string) (float64, bool) {
	t.Helper()
	v, ok, err := h.store.ZScore(context.Background(), internal.RoomLeaderBoardKey(roomId), nickName)
	require.NoError(t, err)
	return v, ok
}

func (h *harness) activeWord(t *testing.T, roomId string) (string, bool) {
	t.Helper()
	w, ok, err := h.engine.ActiveWord(context.Background(), roomId)
	require.NoError(t, err)
	return w, ok
}
