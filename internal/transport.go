package internal

import "context"

// Transport is one live client connection.
type Transport interface {
	ID() string
	Send(msg any) error
	// Probe sends a liveness probe and blocks until the client acknowledges
	// it or ctx is done.
	Probe(ctx context.Context) error
	Close() error
}

// Gateway delivers events to the connections joined to a room.
type Gateway interface {
	Lookup(id string) (Transport, bool)
	Join(roomId string, t Transport)
	Leave(roomId string, t Transport)
	// Members lists the connections currently joined to the room.
	Members(roomId string) []Transport
	Broadcast(roomId string, msg any)
	Send(t Transport, msg any)
}
