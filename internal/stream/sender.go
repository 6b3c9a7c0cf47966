package stream

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"example.com/physique/internal/observability"
)

// Defaults for chunked sends.
const (
	DefaultChunkSize  = 256 * 1024
	DefaultChunkDelay = 16 * time.Millisecond
)

// Sender streams assets over a Transport, each key at most once.
type Sender struct {
	transport Transport
	chunkSize int
	delay     time.Duration
	logger    *slog.Logger

	mu   sync.Mutex
	sent map[string]bool
	wg   sync.WaitGroup
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithChunkSize sets the encoded chunk length. Values <= 0 are ignored.
func WithChunkSize(n int) SenderOption {
	return func(s *Sender) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithChunkDelay sets the pause between chunks.
func WithChunkDelay(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithSenderLogger sets a custom logger.
func WithSenderLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) { s.logger = l }
}

// NewSender constructs a Sender over t.
func NewSender(t Transport, opts ...SenderOption) *Sender {
	s := &Sender{
		transport: t,
		chunkSize: DefaultChunkSize,
		delay:     DefaultChunkDelay,
		logger:    slog.Default(),
		sent:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sent reports whether key has already been claimed for streaming.
func (s *Sender) Sent(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[key]
}

// Stream starts sending asset under key in its own goroutine and returns
// false if key was already streamed in this session. A key is claimed before
// sending starts so overlapping calls never interleave two copies.
func (s *Sender) Stream(ctx context.Context, key string, asset []byte) bool {
	s.mu.Lock()
	if s.sent[key] {
		s.mu.Unlock()
		return false
	}
	s.sent[key] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Send(ctx, key, asset); err != nil {
			s.logger.Warn("stream: send failed", "key", key, "error", err)
		}
	}()
	return true
}

// Wait blocks until every Stream goroutine has finished.
func (s *Sender) Wait() {
	s.wg.Wait()
}

// Send streams asset synchronously: chunkStart, each chunk spaced by the
// chunk delay, then chunkEnd.
func (s *Sender) Send(ctx context.Context, key string, asset []byte) error {
	parts := Split(base64.StdEncoding.EncodeToString(asset), s.chunkSize)
	s.logger.Debug("stream: sending asset", "key", key, "chunks", len(parts), "bytes", len(asset))

	if err := s.transport.Send(ctx, ChunkStart(key, len(parts))); err != nil {
		return fmt.Errorf("chunkStart %q: %w", key, err)
	}
	for i, part := range parts {
		if i > 0 && s.delay > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return err
			}
		}
		if err := s.transport.Send(ctx, Chunk(key, i, part)); err != nil {
			return fmt.Errorf("chunk %d of %q: %w", i, key, err)
		}
		observability.RecordChunkSent()
	}
	if err := s.transport.Send(ctx, ChunkEnd(key)); err != nil {
		return fmt.Errorf("chunkEnd %q: %w", key, err)
	}
	return nil
}

// Split cuts encoded into pieces of at most size characters.
func Split(encoded string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	parts := make([]string, 0, (len(encoded)+size-1)/size)
	for start := 0; start < len(encoded); start += size {
		end := min(start+size, len(encoded))
		parts = append(parts, encoded[start:end])
	}
	return parts
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
