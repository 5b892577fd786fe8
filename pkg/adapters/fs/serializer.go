package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagrid/pkg/core"
)

// Serializer defines how to read and write a board snapshot in a specific format.
type Serializer interface {
	// Parse reads a snapshot from r.
	Parse(r io.Reader) (*core.Snapshot, error)
	// Serialize converts the snapshot to bytes.
	Serialize(s core.Snapshot) ([]byte, error)
	// Ext is the file extension, dot included.
	Ext() string
}

// SerializerFor returns the serializer for a format name or extension:
// "json" or "yaml"/"yml", with or without a leading dot.
func SerializerFor(format string, strict bool) (Serializer, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "", "json":
		return NewJSONSerializer(strict), nil
	case "yaml", "yml":
		return NewYAMLSerializer(strict), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON snapshots.
type JSONSerializer struct {
	// Strict rejects unknown fields.
	Strict bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer(strict bool) *JSONSerializer {
	return &JSONSerializer{Strict: strict}
}

func (s *JSONSerializer) Ext() string { return ".json" }

func (s *JSONSerializer) Parse(r io.Reader) (*core.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var snap core.Snapshot
	decoder := json.NewDecoder(bytes.NewReader(data))
	if s.Strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(&snap); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return &snap, nil
}

func (s *JSONSerializer) Serialize(snap core.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML snapshots.
type YAMLSerializer struct {
	// Strict rejects unknown fields.
	Strict bool
}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer(strict bool) *YAMLSerializer {
	return &YAMLSerializer{Strict: strict}
}

func (s *YAMLSerializer) Ext() string { return ".yaml" }

func (s *YAMLSerializer) Parse(r io.Reader) (*core.Snapshot, error) {
	var snap core.Snapshot
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(s.Strict)
	if err := decoder.Decode(&snap); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("invalid yaml: empty document")
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return &snap, nil
}

func (s *YAMLSerializer) Serialize(snap core.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(snap); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
