package game

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/scythe504/wordrace-backend/internal/utils"
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// Registry is the fixed set of rooms, kept in the rooms hash (id -> name).
type Registry struct {
	store store.Store
	rnd   *rand.Rand
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// WithRand makes generated room names deterministic.
func (r *Registry) WithRand(rnd *rand.Rand) *Registry {
	r.rnd = rnd
	return r
}

// EnsureRooms creates rooms only when the registry is empty. Explicit names
// win over generated ones; otherwise count rooms get a generated name.
func (r *Registry) EnsureRooms(ctx context.Context, count int, names []string) (int, error) {
	existing, err := r.store.HGetAll(ctx, internal.RoomsKey)
	if err != nil {
		return 0, internal.StoreError("list rooms", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	if len(names) == 0 {
		names = make([]string, 0, count)
		for range count {
			names = append(names, utils.GenerateRoomName(r.rnd))
		}
	}

	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := r.store.HSet(ctx, internal.RoomsKey, uuid.NewString(), name); err != nil {
			return created, internal.StoreError("create room", err)
		}
		created++
	}
	return created, nil
}

func (r *Registry) Exists(ctx context.Context, roomId string) (bool, error) {
	_, ok, err := r.Name(ctx, roomId)
	return ok, err
}

func (r *Registry) Name(ctx context.Context, roomId string) (string, bool, error) {
	name, ok, err := r.store.HGet(ctx, internal.RoomsKey, roomId)
	if err != nil {
		return "", false, internal.StoreError("get room", err)
	}
	return name, ok, nil
}

func (r *Registry) IDs(ctx context.Context) ([]string, error) {
	all, err := r.store.HGetAll(ctx, internal.RoomsKey)
	if err != nil {
		return nil, internal.StoreError("list rooms", err)
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *Registry) Size(ctx context.Context, roomId string) (int64, error) {
	n, err := r.store.SCard(ctx, internal.RoomPlayersKey(roomId))
	if err != nil {
		return 0, internal.StoreError("count players", err)
	}
	return n, nil
}

// List returns every room with its live occupancy, ordered by name.
func (r *Registry) List(ctx context.Context) ([]internal.Room, error) {
	all, err := r.store.HGetAll(ctx, internal.RoomsKey)
	if err != nil {
		return nil, internal.StoreError("list rooms", err)
	}

	rooms := make([]internal.Room, 0, len(all))
	for id, name := range all {
		size, err := r.Size(ctx, id)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, internal.Room{Id: id, Name: name, Size: size})
	}
	slices.SortFunc(rooms, func(a, b internal.Room) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
	return rooms, nil
}
