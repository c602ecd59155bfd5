package internal

// Per-nickname keys in the shared store.

func PlayerSocketKey(nickName string) string {
	return "socket:" + nickName
}

func PlayerCurrentRoomKey(nickName string) string {
	return "currentRoom:" + nickName
}
