// Package websockets is the gorilla/websocket gateway: it upgrades
// connections, fans room events out to them and feeds client frames to a
// SessionHandler through one read loop per connection.
package websockets

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/scythe504/wordrace-backend/internal"
	"golang.org/x/time/rate"
)

// SessionHandler receives the lifecycle of every connection.
type SessionHandler interface {
	Connect(ctx context.Context, t internal.Transport, roomId, nickName string) error
	Dispatch(ctx context.Context, t internal.Transport, nickName string, raw []byte)
	Disconnect(ctx context.Context, t internal.Transport, nickName string) error
}

type Options struct {
	// AllowedOrigins of "*" or an empty list accept every origin.
	AllowedOrigins  []string
	EventsPerSecond float64
	EventBurst      int
	SendBuffer      int
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageSize  int64
}

func DefaultOptions() Options {
	return Options{
		EventsPerSecond: 5,
		EventBurst:      10,
		SendBuffer:      256,
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		PingPeriod:      54 * time.Second,
		MaxMessageSize:  4096,
	}
}

type Hub struct {
	logger   zerolog.Logger
	opts     Options
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*Conn
	rooms map[string]map[string]*Conn
}

func NewHub(logger zerolog.Logger, opts Options) *Hub {
	defaults := DefaultOptions()
	if opts.EventsPerSecond <= 0 {
		opts.EventsPerSecond = defaults.EventsPerSecond
	}
	if opts.EventBurst <= 0 {
		opts.EventBurst = defaults.EventBurst
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.SendBuffer
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaults.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaults.PongWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaults.MaxMessageSize
	}

	h := &Hub{
		logger: logger.With().Str("component", "hub").Logger(),
		opts:   opts,
		conns:  make(map[string]*Conn),
		rooms:  make(map[string]map[string]*Conn),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(h.opts.AllowedOrigins, origin)
}

// Serve upgrades the request and runs the connection until it ends. The
// handshake carries roomId and nickname as query parameters.
func (h *Hub) Serve(handler SessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("[Serve] upgrade failed")
			return
		}

		roomId := r.URL.Query().Get("roomId")
		nickName := r.URL.Query().Get("nickname")
		ctx := context.WithoutCancel(r.Context())

		c := newConn(h, ws)
		h.register(c)
		go c.writePump()

		h.logger.Info().Str("conn", c.id).Str("room", roomId).Str("nick", nickName).Msg("[Serve] connection opened")
		if err := handler.Connect(ctx, c, roomId, nickName); err != nil {
			h.logger.Debug().Err(err).Str("conn", c.id).Msg("[Serve] connect rejected")
		}
		c.readPump(ctx, handler, nickName)
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.id)
	for roomId := range c.joined {
		h.removeFromRoom(roomId, c)
	}
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(roomId string, c *Conn) {
	delete(c.joined, roomId)
	members := h.rooms[roomId]
	delete(members, c.id)
	if len(members) == 0 {
		delete(h.rooms, roomId)
	}
}

func (h *Hub) conn(t internal.Transport) (*Conn, bool) {
	if c, ok := t.(*Conn); ok {
		return c, true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[t.ID()]
	return c, ok
}

func (h *Hub) Lookup(id string) (internal.Transport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (h *Hub) Join(roomId string, t internal.Transport) {
	c, ok := h.conn(t)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.conns[c.id]; !live {
		return
	}
	members, ok := h.rooms[roomId]
	if !ok {
		members = make(map[string]*Conn)
		h.rooms[roomId] = members
	}
	members[c.id] = c
	c.joined[roomId] = struct{}{}
}

func (h *Hub) Leave(roomId string, t internal.Transport) {
	c, ok := h.conn(t)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(roomId, c)
}

func (h *Hub) Members(roomId string) []internal.Transport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]internal.Transport, 0, len(h.rooms[roomId]))
	for _, c := range h.rooms[roomId] {
		out = append(out, c)
	}
	return out
}

// Broadcast marshals msg once and queues it on every connection in the room.
func (h *Hub) Broadcast(roomId string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("room", roomId).Msg("[Broadcast] marshal failed")
		return
	}

	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.rooms[roomId]))
	for _, c := range h.rooms[roomId] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if h.deliver(c, data) {
			delivered++
		}
	}
	h.logger.Debug().Str("room", roomId).Int("delivered", delivered).Int("targets", len(targets)).Msg("[Broadcast]")
}

func (h *Hub) deliver(c *Conn, data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Str("conn", c.id).Msg("[deliver] recovered")
			ok = false
		}
	}()
	if err := c.enqueue(data); err != nil {
		h.logger.Warn().Err(err).Str("conn", c.id).Msg("[deliver] dropped message")
		return false
	}
	return true
}

func (h *Hub) Send(t internal.Transport, msg any) {
	if err := t.Send(msg); err != nil {
		h.logger.Warn().Err(err).Str("conn", t.ID()).Msg("[Send] dropped message")
	}
}

// Count is the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll closes every open connection, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Close()
	}
	h.logger.Info().Int("connections", len(conns)).Msg("[CloseAll] closed connections")
}

func newConn(h *Hub, ws *websocket.Conn) *Conn {
	return &Conn{
		id:      newConnID(),
		ws:      ws,
		hub:     h,
		send:    make(chan []byte, h.opts.SendBuffer),
		acks:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.opts.EventsPerSecond), h.opts.EventBurst),
		joined:  make(map[string]struct{}),
	}
}
