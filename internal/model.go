package internal

import (
	"time"
)

const (
	MinPlayersToStart = 2
	SweepInterval     = 15 * time.Second
	ProbeTimeout      = 5 * time.Second

	// Unranked is returned by rank lookups for players without a score record.
	Unranked = 0
)

// Room is the immutable identity of a room plus its live occupancy.
type Room struct {
	Id   string `json:"roomId"`
	Name string `json:"roomName"`
	Size int64  `json:"roomSize"`
}

type LeaderboardEntry struct {
	NickName string `json:"nickName"`
	Score    int64  `json:"score"`
	Rank     int    `json:"rank"`
}

// SubmitResult is the outcome of a single word submission.
type SubmitResult struct {
	Success  bool   `json:"success"`
	RoomId   string `json:"roomId"`
	NickName string `json:"nickName,omitempty"`
	Winner   string `json:"winner,omitempty"`
}

type Response struct {
	Success       bool   `json:"success"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	RespStartTime int64  `json:"respStartTime"`
	RespEndTime   int64  `json:"respEndTime"`
	NetRespTime   int64  `json:"netRespTime"`
}
