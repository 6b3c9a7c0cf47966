// Package stream moves large encoded model assets between a host and a render
// surface as ordered, individually sized chunks over a message channel.
package stream

import (
	"context"
	"encoding/json"
	"errors"

	"example.com/physique/internal/muscle"
)

// Type names a protocol message.
type Type string

// Host to surface.
const (
	TypeChunkStart   Type = "chunkStart"
	TypeChunk        Type = "chunk"
	TypeChunkEnd     Type = "chunkEnd"
	TypeSwitchTo     Type = "switchTo"
	TypeUpdateScores Type = "updateScores"
	TypeSelectMuscle Type = "selectMuscle"
)

// Surface to host.
const (
	TypeReady        Type = "ready"
	TypeModelReady   Type = "modelReady"
	TypeModelError   Type = "modelError"
	TypeMuscleTapped Type = "muscleTapped"
)

// Message is the single envelope exchanged in both directions.
type Message struct {
	Type     Type              `json:"type"`
	Key      string            `json:"key,omitempty"`
	Total    int               `json:"total,omitempty"`
	Index    int               `json:"i,omitempty"`
	Data     string            `json:"data,omitempty"`
	Scores   map[muscle.ID]int `json:"scores,omitempty"`
	MuscleID muscle.ID         `json:"muscleId,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ChunkStart opens a transfer of total chunks for key.
func ChunkStart(key string, total int) Message {
	return Message{Type: TypeChunkStart, Key: key, Total: total}
}

// Chunk carries the base64 slice at index of key's transfer.
func Chunk(key string, index int, data string) Message {
	return Message{Type: TypeChunk, Key: key, Index: index, Data: data}
}

// ChunkEnd asks the surface to reassemble and parse key.
func ChunkEnd(key string) Message { return Message{Type: TypeChunkEnd, Key: key} }

// SwitchTo makes key the model the surface should show.
func SwitchTo(key string) Message { return Message{Type: TypeSwitchTo, Key: key} }

// UpdateScores replaces the scores used to colour every model.
func UpdateScores(scores map[muscle.ID]int) Message {
	return Message{Type: TypeUpdateScores, Scores: scores}
}

// SelectMuscle highlights id; an empty id clears the selection.
func SelectMuscle(id muscle.ID) Message {
	return Message{Type: TypeSelectMuscle, MuscleID: id}
}

// Ready tells the host the surface can receive models.
func Ready() Message { return Message{Type: TypeReady} }

// ModelReady reports that key parsed and is classified.
func ModelReady(key string) Message { return Message{Type: TypeModelReady, Key: key} }

// ModelError reports that key failed to load.
func ModelError(key string, err error) Message {
	return Message{Type: TypeModelError, Key: key, Error: err.Error()}
}

// MuscleTapped reports a tap that hit a classified vertex.
func MuscleTapped(id muscle.ID) Message {
	return Message{Type: TypeMuscleTapped, MuscleID: id}
}

// MarshalJSON writes i on every chunk message, index 0 included.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	if m.Type != TypeChunk {
		return json.Marshal(plain(m))
	}
	return json.Marshal(struct {
		plain
		Index int `json:"i"`
	}{plain(m), m.Index})
}

// ErrClosed is returned by a Transport after Close.
var ErrClosed = errors.New("stream: transport closed")

// Transport carries messages across the host/surface boundary. Send may be
// called from multiple goroutines; Receive from one.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// ModelSource supplies encoded model assets by key.
type ModelSource interface {
	Keys() []string
	Encoded(key string) ([]byte, error)
}
