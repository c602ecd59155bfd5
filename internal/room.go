package internal

// Per-room and global keys in the shared store.

const (
	RoomsKey = "rooms"
	WordsKey = "words"
)

func RoomPlayersKey(roomId string) string {
	return "room:" + roomId + ":players"
}

func RoomCurrentWordKey(roomId string) string {
	return "room:" + roomId + ":currentWord"
}

func RoomLeaderBoardKey(roomId string) string {
	return "room:" + roomId + ":leaderboard"
}
