package game

import (
	"context"
	"sync"
	"time"

	"github.com/scythe504/wordrace-backend/internal"
)

// =============================================================================
// LIVENESS SWEEP
// =============================================================================

// RunLiveness sweeps every SweepInterval until ctx is done. A sweep already
// in progress runs to completion.
func (e *Engine) RunLiveness(ctx context.Context) {
	ticker := time.NewTicker(e.opts.SweepInterval)
	defer ticker.Stop()

	e.logger.Info().Dur("interval", e.opts.SweepInterval).Msg("[RunLiveness] started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("[RunLiveness] stopped")
			return
		case <-ticker.C:
			e.Sweep(context.WithoutCancel(ctx))
		}
	}
}

// Sweep probes every member of every room and removes the ones that do not
// answer within ProbeTimeout. Each room ends with a leaderboard broadcast.
func (e *Engine) Sweep(ctx context.Context) {
	roomIds, err := e.rooms.IDs(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("[Sweep] could not list rooms")
		return
	}

	start := time.Now()
	for _, roomId := range roomIds {
		e.sweepRoom(ctx, roomId)
	}
	e.logger.Debug().Int("rooms", len(roomIds)).Dur("took", time.Since(start)).Msg("[Sweep] completed")
}

func (e *Engine) sweepRoom(ctx context.Context, roomId string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("room", roomId).Msg("[sweepRoom] recovered")
		}
	}()

	members, err := e.store.SMembers(ctx, internal.RoomPlayersKey(roomId))
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[sweepRoom] could not list members")
		return
	}

	var wg sync.WaitGroup
	for _, nickName := range members {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.probeMember(ctx, roomId, nickName)
		}()
	}
	wg.Wait()

	e.closeUnbound(ctx, roomId)
	e.broadcastLeaderboard(ctx, roomId)
}

// closeUnbound closes every connection still joined to the room whose
// nickname has since been bound to another connection or has left. The
// connection list is read before the bindings so a connection joining
// meanwhile is already bound when it is seen.
func (e *Engine) closeUnbound(ctx context.Context, roomId string) {
	joined := e.gateway.Members(roomId)
	if len(joined) == 0 {
		return
	}

	members, err := e.store.SMembers(ctx, internal.RoomPlayersKey(roomId))
	if err != nil {
		e.logger.Error().Err(err).Str("room", roomId).Msg("[closeUnbound] could not list members")
		return
	}
	bound := make(map[string]struct{}, len(members))
	for _, nickName := range members {
		connId, ok, err := e.store.Get(ctx, internal.PlayerSocketKey(nickName))
		if err != nil {
			e.logger.Error().Err(err).Str("nick", nickName).Msg("[closeUnbound] binding lookup failed")
			return
		}
		if ok {
			bound[connId] = struct{}{}
		}
	}

	for _, t := range joined {
		if _, ok := bound[t.ID()]; ok {
			continue
		}
		e.logger.Info().Str("room", roomId).Str("conn", t.ID()).Msg("[closeUnbound] closing superseded connection")
		e.gateway.Leave(roomId, t)
		if err := t.Close(); err != nil {
			e.logger.Debug().Err(err).Str("conn", t.ID()).Msg("[closeUnbound] close failed")
		}
	}
}

func (e *Engine) probeMember(ctx context.Context, roomId, nickName string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("room", roomId).Str("nick", nickName).Msg("[probeMember] recovered")
		}
	}()

	current, inRoom, err := e.store.Get(ctx, internal.PlayerCurrentRoomKey(nickName))
	if err != nil {
		e.logger.Error().Err(err).Str("nick", nickName).Msg("[probeMember] room lookup failed")
		return
	}
	if !inRoom || current != roomId {
		e.logger.Warn().Str("room", roomId).Str("pointer", current).Str("nick", nickName).Msg("[probeMember] member points elsewhere, removing")
		e.reap(ctx, roomId, nickName, "")
		return
	}

	boundId, bound, err := e.store.Get(ctx, internal.PlayerSocketKey(nickName))
	if err != nil {
		e.logger.Error().Err(err).Str("nick", nickName).Msg("[probeMember] binding lookup failed")
		return
	}

	var t internal.Transport
	if bound {
		t, bound = e.gateway.Lookup(boundId)
	}
	if !bound {
		e.logger.Warn().Str("room", roomId).Str("nick", nickName).Msg("[probeMember] no live connection, removing")
		e.reap(ctx, roomId, nickName, boundId)
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()

	if err := t.Probe(probeCtx); err != nil {
		e.logger.Warn().Err(err).Str("room", roomId).Str("nick", nickName).Msg("[probeMember] no ack, closing")
		if cerr := t.Close(); cerr != nil {
			e.logger.Debug().Err(cerr).Str("conn", t.ID()).Msg("[probeMember] close failed")
		}
		e.reap(ctx, roomId, nickName, t.ID())
	}
}

func (e *Engine) reap(ctx context.Context, roomId, nickName, connId string) {
	if _, err := e.removePlayer(ctx, nickName, roomId, connId); err != nil {
		e.logger.Error().Err(err).Str("nick", nickName).Msg("[reap] removal failed")
	}
}
