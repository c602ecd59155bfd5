package websockets

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/scythe504/wordrace-backend/internal"
	"golang.org/x/time/rate"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is one websocket client. writePump is the only writer of data
// frames; control frames go through WriteControl, which gorilla allows
// concurrently.
type Conn struct {
	id   string
	ws   *websocket.Conn
	hub  *Hub
	send chan []byte
	// acks is signalled by control pongs and by app-level pong events.
	acks      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter

	// joined is guarded by hub.mu.
	joined map[string]struct{}
}

func newConnID() string {
	return uuid.NewString()
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Conn) enqueue(data []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Probe sends an app-level ping event plus a control ping and waits for
// either kind of pong.
func (c *Conn) Probe(ctx context.Context) error {
	// Drop acks that arrived before this probe.
	select {
	case <-c.acks:
	default:
	}

	ping := internal.Message[any]{Type: internal.EventPing, Data: map[string]int64{"ts": time.Now().UnixMilli()}}
	if err := c.Send(ping); err != nil {
		return err
	}
	deadline := time.Now().Add(c.hub.opts.WriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return err
	}

	select {
	case <-c.acks:
		return nil
	case <-c.closed:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) ack() {
	select {
	case c.acks <- struct{}{}:
	default:
	}
}

// Close asks writePump to flush what is queued and close the socket.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

func (c *Conn) readPump(ctx context.Context, handler SessionHandler, nickName string) {
	log := c.hub.logger
	defer func() {
		c.hub.unregister(c)
		_ = c.Close()
		if nickName != "" {
			if err := handler.Disconnect(ctx, c, nickName); err != nil {
				log.Error().Err(err).Str("conn", c.id).Str("nick", nickName).Msg("[readPump] disconnect failed")
			}
		}
		log.Info().Str("conn", c.id).Str("nick", nickName).Msg("[readPump] connection closed")
	}()

	c.ws.SetReadLimit(c.hub.opts.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ack()
		return c.ws.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.id).Msg("[readPump] read error")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))

		if isPong(raw) {
			c.ack()
			continue
		}
		if !c.limiter.Allow() {
			log.Debug().Str("conn", c.id).Str("nick", nickName).Msg("[readPump] rate limited")
			_ = c.Send(internal.Message[any]{
				Type: internal.EventError,
				Data: internal.ErrorData{Message: "Too many events", Kind: internal.KindInvalidRequest},
			})
			continue
		}
		handler.Dispatch(ctx, c, nickName, raw)
	}
}

func isPong(raw []byte) bool {
	var head struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(raw, &head) == nil && head.Type == internal.EventPong
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				c.hub.logger.Debug().Err(err).Str("conn", c.id).Msg("[writePump] write failed")
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.hub.opts.WriteWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			c.flush()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (c *Conn) write(data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// flush writes whatever is still queued, stopping at the first failure.
func (c *Conn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}
