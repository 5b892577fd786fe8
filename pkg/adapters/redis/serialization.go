package redis

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aretw0/tagrid/pkg/core"
)

// Notes are stored as hashes with one field per attribute so they stay
// inspectable from redis-cli. Headers are JSON list items.

// NoteToHash converts a note to a Redis hash.
func NoteToHash(n core.Note) map[string]interface{} {
	return map[string]interface{}{
		"id":            n.ID,
		"created_at_ms": n.CreatedAt,
		"text":          n.Text,
		"order":         strconv.FormatFloat(n.Order, 'g', -1, 64),
	}
}

// HashToNote converts a Redis hash back to a note.
func HashToNote(hash map[string]string) (core.Note, error) {
	order, err := strconv.ParseFloat(hash["order"], 64)
	if err != nil {
		return core.Note{}, fmt.Errorf("invalid order field: %w", err)
	}
	createdAt, err := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	if err != nil {
		return core.Note{}, fmt.Errorf("invalid created_at_ms field: %w", err)
	}
	return core.Note{
		ID:        hash["id"],
		CreatedAt: createdAt,
		Text:      hash["text"],
		Order:     order,
	}, nil
}

func encodeHeaders(headers []core.Header) ([]interface{}, error) {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		data, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal header %s: %w", h.ID, err)
		}
		out[i] = string(data)
	}
	return out, nil
}

func decodeHeaders(items []string) ([]core.Header, error) {
	out := make([]core.Header, len(items))
	for i, item := range items {
		if err := json.Unmarshal([]byte(item), &out[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal header %d: %w", i, err)
		}
	}
	return out, nil
}

// changeMessage is published on the events channel after every save.
type changeMessage struct {
	Origin    string `json:"origin"`
	Revision  int64  `json:"revision"`
	Timestamp int64  `json:"timestamp"`
}
