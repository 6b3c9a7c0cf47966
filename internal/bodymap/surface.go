package bodymap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"example.com/physique/internal/muscle"
	"example.com/physique/internal/observability"
	"example.com/physique/internal/stream"
)

// State is the lifecycle of one model on a surface.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateParsing
	StateReady
	StateActive
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateParsing:
		return "parsing"
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type model struct {
	state  State
	mesh   *Mesh
	class  *Classification
	colors [][]muscle.RGB
	err    error
}

// Decoder turns a reassembled asset into a mesh.
type Decoder func(key string, data []byte) (*Mesh, error)

// Surface is a headless render surface. It receives models and props over a
// transport, keeps per-vertex classification and colours for every loaded
// model and reports taps.
type Surface struct {
	transport   stream.Transport
	reassembler *stream.Reassembler
	decode      Decoder
	camera      Camera
	logger      *slog.Logger

	mu       sync.Mutex
	models   map[string]*model
	active   string
	desired  string
	scores   map[muscle.ID]int
	selected muscle.ID
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithDecoder replaces DecodeGLB.
func WithDecoder(d Decoder) SurfaceOption {
	return func(s *Surface) { s.decode = d }
}

// WithCamera sets the camera used for taps.
func WithCamera(c Camera) SurfaceOption {
	return func(s *Surface) { s.camera = c }
}

// WithSurfaceLogger sets a custom logger.
func WithSurfaceLogger(l *slog.Logger) SurfaceOption {
	return func(s *Surface) { s.logger = l }
}

// NewSurface constructs a surface over t.
func NewSurface(t stream.Transport, opts ...SurfaceOption) *Surface {
	s := &Surface{
		transport:   t,
		reassembler: stream.NewReassembler(),
		decode:      DecodeGLB,
		camera:      DefaultCamera(390, 480),
		logger:      slog.Default(),
		models:      make(map[string]*model),
		scores:      map[muscle.ID]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run announces readiness and handles host messages until the transport
// closes or ctx ends. Per-message failures are logged and do not stop it.
func (s *Surface) Run(ctx context.Context) error {
	if err := s.transport.Send(ctx, stream.Ready()); err != nil {
		return fmt.Errorf("announce ready: %w", err)
	}
	for {
		msg, err := s.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, stream.ErrClosed) {
				return nil
			}
			return err
		}
		if err := s.Handle(ctx, msg); err != nil {
			s.logger.Warn("bodymap: message rejected", "type", msg.Type, "key", msg.Key, "error", err)
		}
	}
}

// Handle applies one host message.
func (s *Surface) Handle(ctx context.Context, msg stream.Message) error {
	switch msg.Type {
	case stream.TypeChunkStart:
		return s.startTransfer(msg.Key, msg.Total)
	case stream.TypeChunk:
		return s.reassembler.Put(msg.Key, msg.Index, msg.Data)
	case stream.TypeChunkEnd:
		return s.finishTransfer(ctx, msg.Key)
	case stream.TypeSwitchTo:
		s.switchTo(msg.Key)
		return nil
	case stream.TypeUpdateScores:
		s.updateScores(msg.Scores)
		return nil
	case stream.TypeSelectMuscle:
		s.mu.Lock()
		s.selected = msg.MuscleID
		s.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("unexpected message type %q", msg.Type)
	}
}

func (s *Surface) modelFor(key string) *model {
	m, ok := s.models[key]
	if !ok {
		m = &model{}
		s.models[key] = m
	}
	return m
}

func (s *Surface) startTransfer(key string, total int) error {
	s.mu.Lock()
	m := s.modelFor(key)
	switch m.state {
	case StateError:
		s.mu.Unlock()
		return fmt.Errorf("model %q failed earlier: %w", key, m.err)
	case StateUnloaded:
		m.state = StateLoading
	}
	s.mu.Unlock()
	return s.reassembler.Start(key, total)
}

func (s *Surface) finishTransfer(ctx context.Context, key string) error {
	data, err := s.reassembler.Finish(key)
	observability.RecordTransfer(err == nil)
	if err != nil {
		return s.fail(ctx, key, err)
	}

	s.mu.Lock()
	m := s.modelFor(key)
	if m.state == StateReady || m.state == StateActive {
		s.mu.Unlock()
		return nil
	}
	m.state = StateParsing
	s.mu.Unlock()

	mesh, err := s.decode(key, data)
	if err != nil {
		observability.RecordModelFailed()
		return s.fail(ctx, key, err)
	}
	class := Classify(mesh)
	observability.RecordModelParsed(class.VertexCount())

	s.mu.Lock()
	m.mesh, m.class, m.state = mesh, class, StateReady
	if key == s.desired || s.active == "" {
		s.show(key)
	}
	s.mu.Unlock()

	if err := s.transport.Send(ctx, stream.ModelReady(key)); err != nil {
		return fmt.Errorf("announce %q: %w", key, err)
	}
	return nil
}

func (s *Surface) fail(ctx context.Context, key string, cause error) error {
	s.mu.Lock()
	m := s.modelFor(key)
	m.state, m.err = StateError, cause
	s.mu.Unlock()
	if err := s.transport.Send(ctx, stream.ModelError(key, cause)); err != nil {
		s.logger.Warn("bodymap: could not report model failure", "key", key, "error", err)
	}
	return cause
}

func (s *Surface) switchTo(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desired = key
	if m, ok := s.models[key]; ok && (m.state == StateReady || m.state == StateActive) {
		s.show(key)
	}
}

// show makes key the active model. Callers hold s.mu.
func (s *Surface) show(key string) {
	if s.active == key {
		return
	}
	if prev, ok := s.models[s.active]; ok && prev.state == StateActive {
		prev.state = StateReady
	}
	m := s.models[key]
	m.state = StateActive
	s.active = key
	m.colors = Colorize(m.class, s.scores)
}

func (s *Surface) updateScores(scores map[muscle.ID]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scores == nil {
		scores = map[muscle.ID]int{}
	}
	s.scores = scores
	if m, ok := s.models[s.active]; ok && m.class != nil {
		m.colors = Colorize(m.class, s.scores)
	}
}

// Tap hit-tests the active model at pixel (px, py). When the hit lands on a
// classified region the muscle is selected and reported to the host.
func (s *Surface) Tap(ctx context.Context, px, py float64) (muscle.ID, bool) {
	s.mu.Lock()
	m, ok := s.models[s.active]
	if !ok || m.mesh == nil {
		s.mu.Unlock()
		return "", false
	}
	hit, ok := HitTest(m.mesh, s.camera.Ray(px, py))
	if !ok {
		s.mu.Unlock()
		return "", false
	}
	id, ok := m.class.Reference.Classify(hit.Point.X, hit.Point.Y, hit.Point.Z)
	if !ok {
		s.mu.Unlock()
		return "", false
	}
	s.selected = id
	s.mu.Unlock()

	observability.RecordTap(string(id))
	if err := s.transport.Send(ctx, stream.MuscleTapped(id)); err != nil {
		s.logger.Warn("bodymap: could not report tap", "muscle", id, "error", err)
	}
	return id, true
}

// State returns the lifecycle state of key.
func (s *Surface) State(key string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.models[key]; ok {
		return m.state
	}
	return StateUnloaded
}

// Err returns the failure recorded for key, if any.
func (s *Surface) Err(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.models[key]; ok {
		return m.err
	}
	return nil
}

// Active returns the displayed model key.
func (s *Surface) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Selected returns the highlighted muscle.
func (s *Surface) Selected() muscle.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Classification returns the cached classification for key.
func (s *Surface) Classification(key string) *Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.models[key]; ok {
		return m.class
	}
	return nil
}

// Colors returns the current vertex colours of the active model.
func (s *Surface) Colors() [][]muscle.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.models[s.active]; ok {
		return m.colors
	}
	return nil
}
