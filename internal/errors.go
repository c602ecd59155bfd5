package internal

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidRequest   ErrorKind = "InvalidRequest"
	KindRoomNotFound     ErrorKind = "RoomNotFound"
	KindPlayerNotInRoom  ErrorKind = "PlayerNotInRoom"
	KindNoActiveWord     ErrorKind = "NoActiveWord"
	KindNoWordsAvailable ErrorKind = "NoWordsAvailable"
	KindStoreUnavailable ErrorKind = "StoreUnavailable"
)

// GameError carries a taxonomy kind alongside a client-facing message.
// Two GameErrors match under errors.Is when their kinds are equal.
type GameError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

var (
	ErrInvalidRequest   = &GameError{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrRoomNotFound     = &GameError{Kind: KindRoomNotFound, Message: "Room not found"}
	ErrPlayerNotInRoom  = &GameError{Kind: KindPlayerNotInRoom, Message: "Player is not in a room"}
	ErrNoActiveWord     = &GameError{Kind: KindNoActiveWord, Message: "No word assigned to the room"}
	ErrNoWordsAvailable = &GameError{Kind: KindNoWordsAvailable, Message: "No words available"}
	ErrStoreUnavailable = &GameError{Kind: KindStoreUnavailable, Message: "store unavailable"}
)

func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GameError) Unwrap() error { return e.Err }

func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, message string) *GameError {
	return &GameError{Kind: kind, Message: message}
}

func InvalidRequest(message string) *GameError {
	return NewError(KindInvalidRequest, message)
}

// StoreError wraps a failed store call as StoreUnavailable.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &GameError{Kind: KindStoreUnavailable, Message: op, Err: err}
}

// KindOf reports the taxonomy kind of err, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// ClientMessage is the human readable text sent in an error event.
func ClientMessage(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		if ge.Kind == KindStoreUnavailable {
			return "Service temporarily unavailable"
		}
		return ge.Message
	}
	return "Internal error"
}
