package stream

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownTransfer is returned for chunks or ends with no chunkStart.
	ErrUnknownTransfer = errors.New("stream: unknown transfer")
	// ErrIncompleteTransfer is returned when chunkEnd arrives before every
	// chunk was received.
	ErrIncompleteTransfer = errors.New("stream: incomplete transfer")
	// ErrChunkOutOfRange is returned for an index outside [0, total).
	ErrChunkOutOfRange = errors.New("stream: chunk index out of range")
)

type buffer struct {
	total    int
	parts    []string
	have     []bool
	received int
}

// Reassembler collects chunks per key and rebuilds the original bytes.
type Reassembler struct {
	mu      sync.Mutex
	buffers map[string]*buffer
}

// NewReassembler returns an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{buffers: make(map[string]*buffer)}
}

// Start allocates a buffer for key, discarding any earlier partial transfer.
func (r *Reassembler) Start(key string, total int) error {
	if total < 0 {
		return fmt.Errorf("stream: negative chunk total %d for %q", total, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers[key] = &buffer{
		total: total,
		parts: make([]string, total),
		have:  make([]bool, total),
	}
	return nil
}

// Put stores chunk index for key. Order is irrelevant and a repeated index
// overwrites the earlier data without counting twice.
func (r *Reassembler) Put(key string, index int, data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTransfer, key)
	}
	if index < 0 || index >= buf.total {
		return fmt.Errorf("%w: %d of %d for %q", ErrChunkOutOfRange, index, buf.total, key)
	}
	buf.parts[index] = data
	if !buf.have[index] {
		buf.have[index] = true
		buf.received++
	}
	return nil
}

// Progress reports how many chunks have arrived for key.
func (r *Reassembler) Progress(key string) (received, total int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[key]
	if !ok {
		return 0, 0, false
	}
	return buf.received, buf.total, true
}

// Finish releases the buffer for key and returns the decoded asset. The
// buffer is dropped even when the transfer is incomplete.
func (r *Reassembler) Finish(key string) ([]byte, error) {
	r.mu.Lock()
	buf, ok := r.buffers[key]
	delete(r.buffers, key)
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransfer, key)
	}
	if buf.received != buf.total {
		return nil, fmt.Errorf("%w: %q has %d of %d chunks", ErrIncompleteTransfer, key, buf.received, buf.total)
	}
	data, err := base64.StdEncoding.DecodeString(strings.Join(buf.parts, ""))
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return data, nil
}
