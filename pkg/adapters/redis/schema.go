package redis

import "fmt"

// Redis key pattern helpers
//
// Every key and channel is namespaced by board name so several boards can share
// one Redis server.
//
// Key pattern: tagrid:{board}:{entity}[:{id}]
// Channel pattern: tagrid:{board}:events

// RowsKey returns the list holding the row headers, anchor first.
func RowsKey(board string) string {
	return fmt.Sprintf("tagrid:%s:rows", board)
}

// ColsKey returns the list holding the column headers, anchor first.
func ColsKey(board string) string {
	return fmt.Sprintf("tagrid:%s:cols", board)
}

// NoteIDsKey returns the set of note ids stored for the board.
func NoteIDsKey(board string) string {
	return fmt.Sprintf("tagrid:%s:notes", board)
}

// NoteKey returns the hash holding one note.
func NoteKey(board, noteID string) string {
	return fmt.Sprintf("tagrid:%s:note:%s", board, noteID)
}

// RevisionKey returns the counter bumped on every save.
func RevisionKey(board string) string {
	return fmt.Sprintf("tagrid:%s:revision", board)
}

// EventsChannel returns the Pub/Sub channel announcing saves.
func EventsChannel(board string) string {
	return fmt.Sprintf("tagrid:%s:events", board)
}
