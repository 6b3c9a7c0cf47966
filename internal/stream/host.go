package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"example.com/physique/internal/muscle"
)

// DefaultPreloadDelay is how long after the surface is ready the host waits
// before streaming the models that are not on screen.
const DefaultPreloadDelay = 2 * time.Second

// Host drives a render surface: it streams the desired model first, preloads
// the rest in the background and pushes scores and selection.
type Host struct {
	transport    Transport
	source       ModelSource
	sender       *Sender
	logger       *slog.Logger
	preloadDelay time.Duration

	onTap        func(muscle.ID)
	onModelReady func(key string)
	onModelError func(key, cause string)

	mu       sync.Mutex
	ready    bool
	desired  string
	scores   map[muscle.ID]int
	selected muscle.ID
	wg       sync.WaitGroup
}

// HostOption configures a Host.
type HostOption func(*Host, *[]SenderOption)

// WithPreloadDelay overrides DefaultPreloadDelay. A negative value disables
// preloading.
func WithPreloadDelay(d time.Duration) HostOption {
	return func(h *Host, _ *[]SenderOption) { h.preloadDelay = d }
}

// WithSenderOptions forwards options to the underlying Sender.
func WithSenderOptions(opts ...SenderOption) HostOption {
	return func(_ *Host, so *[]SenderOption) { *so = append(*so, opts...) }
}

// WithHostLogger sets a custom logger.
func WithHostLogger(l *slog.Logger) HostOption {
	return func(h *Host, so *[]SenderOption) {
		h.logger = l
		*so = append(*so, WithSenderLogger(l))
	}
}

// OnMuscleTapped registers the tap callback.
func OnMuscleTapped(fn func(muscle.ID)) HostOption {
	return func(h *Host, _ *[]SenderOption) { h.onTap = fn }
}

// OnModelReady registers the model-ready callback.
func OnModelReady(fn func(key string)) HostOption {
	return func(h *Host, _ *[]SenderOption) { h.onModelReady = fn }
}

// OnModelError registers the callback for models the surface failed to load.
func OnModelError(fn func(key, cause string)) HostOption {
	return func(h *Host, _ *[]SenderOption) { h.onModelError = fn }
}

// NewHost builds a host that will show desired once the surface is ready.
func NewHost(t Transport, source ModelSource, desired string, opts ...HostOption) *Host {
	h := &Host{
		transport:    t,
		source:       source,
		logger:       slog.Default(),
		preloadDelay: DefaultPreloadDelay,
		desired:      desired,
	}
	var senderOpts []SenderOption
	for _, opt := range opts {
		opt(h, &senderOpts)
	}
	h.sender = NewSender(t, senderOpts...)
	return h
}

// Run processes surface messages until the transport closes or ctx ends.
// Pending preloads and in-flight sends are cancelled and awaited before it
// returns.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer h.sender.Wait()
	defer h.wg.Wait()
	defer cancel()

	for {
		msg, err := h.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		switch msg.Type {
		case TypeReady:
			h.handleReady(ctx)
		case TypeModelReady:
			if h.onModelReady != nil {
				h.onModelReady(msg.Key)
			}
		case TypeModelError:
			h.logger.Warn("stream: surface failed to load model", "key", msg.Key, "error", msg.Error)
			if h.onModelError != nil {
				h.onModelError(msg.Key, msg.Error)
			}
		case TypeMuscleTapped:
			if msg.MuscleID != "" && h.onTap != nil {
				h.onTap(msg.MuscleID)
			}
		default:
			h.logger.Debug("stream: ignoring message", "type", msg.Type)
		}
	}
}

func (h *Host) handleReady(ctx context.Context) {
	h.mu.Lock()
	h.ready = true
	desired, scores, selected := h.desired, h.scores, h.selected
	h.mu.Unlock()

	if scores != nil {
		h.send(ctx, UpdateScores(scores))
	}
	if selected != "" {
		h.send(ctx, SelectMuscle(selected))
	}
	h.load(ctx, desired, false)

	if h.preloadDelay < 0 {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := sleep(ctx, h.preloadDelay); err != nil {
			return
		}
		for _, key := range h.source.Keys() {
			if key != desired {
				h.load(ctx, key, true)
			}
		}
	}()
}

// load announces key as desired unless preloading, then streams it if the
// surface does not have it yet.
func (h *Host) load(ctx context.Context, key string, preload bool) {
	if key == "" {
		return
	}
	if !preload {
		h.send(ctx, SwitchTo(key))
	}
	if h.sender.Sent(key) {
		return
	}
	asset, err := h.source.Encoded(key)
	if err != nil {
		h.logger.Warn("stream: model unavailable", "key", key, "error", err)
		return
	}
	h.sender.Stream(ctx, key, asset)
}

// SwitchTo makes key the displayed model.
func (h *Host) SwitchTo(ctx context.Context, key string) {
	h.mu.Lock()
	h.desired = key
	ready := h.ready
	h.mu.Unlock()
	if ready {
		h.load(ctx, key, false)
	}
}

// UpdateScores recolours the surface. Scores pushed before the surface is
// ready are delivered once it is.
func (h *Host) UpdateScores(ctx context.Context, scores map[muscle.ID]int) {
	h.mu.Lock()
	h.scores = scores
	ready := h.ready
	h.mu.Unlock()
	if ready {
		h.send(ctx, UpdateScores(scores))
	}
}

// SelectMuscle highlights id on the surface; "" clears it.
func (h *Host) SelectMuscle(ctx context.Context, id muscle.ID) {
	h.mu.Lock()
	h.selected = id
	ready := h.ready
	h.mu.Unlock()
	if ready {
		h.send(ctx, SelectMuscle(id))
	}
}

func (h *Host) send(ctx context.Context, msg Message) {
	if err := h.transport.Send(ctx, msg); err != nil {
		h.logger.Warn("stream: send failed", "type", msg.Type, "error", err)
	}
}
