package internal

import (
	"time"

	"github.com/google/uuid"
)

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Server -> client events.
const (
	EventPlayerJoined    = "player-joined"
	EventPlayerLeft      = "player-left"
	EventNumberOfPlayers = "number-of-players"
	EventStartGame       = "start-game"
	EventRandomWord      = "random-word"
	EventLeaderBoard     = "leader-board"
	EventChat            = "chat"
	EventWordMatch       = "word-match"
	EventWordNotMatch    = "word-not-match"
	EventScore           = "score"
	EventRank            = "rank"
	EventRoomJoined      = "roomJoined"
	EventError           = "error"
	EventPing            = "ping"
)

// Client -> server events.
const (
	EventSubmitWord  = "submit-word"
	EventLeaveRoom   = "leave-room"
	EventGetRoomSize = "get-room-size"
	EventPong        = "pong"
)

// GameEvent is the shared envelope for game-event broadcasts.
type GameEvent struct {
	Id        string `json:"id"`
	Message   string `json:"message"`
	RoomId    string `json:"roomId"`
	NickName  string `json:"nickName"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func NewGameEvent(eventType, roomId, nickName, message string) Message[any] {
	return Message[any]{
		Type: eventType,
		Data: GameEvent{
			Id:        uuid.NewString(),
			Message:   message,
			RoomId:    roomId,
			NickName:  nickName,
			Type:      eventType,
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

type RoomSizeData struct {
	RoomId          string `json:"roomId"`
	NumberOfPlayers int64  `json:"numberOfPlayers"`
}

type ScoreData struct {
	RoomId   string `json:"roomId"`
	NickName string `json:"nickName"`
	Score    int64  `json:"score"`
}

type RankData struct {
	RoomId   string `json:"roomId"`
	NickName string `json:"nickName"`
	Rank     int    `json:"rank"`
}

type WordData struct {
	RoomId string `json:"roomId"`
	Word   string `json:"word"`
}

type LeaderBoardData struct {
	RoomId      string             `json:"roomId"`
	LeaderBoard []LeaderboardEntry `json:"leaderBoard"`
}

type RoomJoinedData struct {
	RoomId  string `json:"roomId"`
	Message string `json:"message"`
}

type ErrorData struct {
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// Client payloads.

type ChatData struct {
	Message string `json:"message"`
}

type SubmitWordData struct {
	Word string `json:"word"`
}

type GetRoomSizeData struct {
	RoomId string `json:"roomId"`
}
