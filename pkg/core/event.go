package core

import (
	"fmt"
	"time"
)

// EventType represents the kind of change observed in a board's storage.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a persisted board, emitted by watchable repositories.
type Event struct {
	Type      EventType
	ID        string // board name
	Timestamp int64  // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s at %s", e.Type, e.ID, time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339))
}
