package templatesync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/stasautomadic/templatesync/internal/metrics"
)

// Edit is one (selector, value) pair headed for the fan-out. A derived
// expansion is an ordered list of these.
type Edit struct {
	Selector string
	Value    string
}

// Session is one editing session: a shared modification store, the main
// preview target plus any attached secondaries, the resolved field bindings
// of the current template, and the render state machine.
//
// All methods are safe for concurrent use. Overlapping ApplyEdit calls are
// not serialized against each other beyond the store's own locking; each push
// carries a full snapshot, so the later-completing push wins a target's
// display (last-write-wins, no merging).
type Session struct {
	ID string

	store     *ModificationStore
	targets   *TargetSet
	render    *RenderMachine
	logger    *log.Logger
	collector *metrics.Collector
	lead      float64
	window    time.Duration

	mu         sync.RWMutex
	tree       []Element
	bindings   []FieldBinding
	onBindings func([]FieldBinding)

	busy atomic.Int64
}

// SessionOption configures a Session.
type SessionOption func(*Session) error

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(s *Session) error {
		s.ID = id
		return nil
	}
}

// WithSeekLead overrides the seek lead applied before every write, in seconds.
func WithSeekLead(seconds float64) SessionOption {
	return func(s *Session) error {
		s.lead = seconds
		return nil
	}
}

// WithDebounceWindow overrides the quiet window of text channels created by
// this session.
func WithDebounceWindow(window time.Duration) SessionOption {
	return func(s *Session) error {
		s.window = window
		return nil
	}
}

// WithLogger sets the logger used for per-target failure reporting.
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) error {
		s.logger = logger
		return nil
	}
}

// WithRenderer wires the render collaborator; without it SubmitRender returns
// ErrNoRenderer.
func WithRenderer(r Renderer) SessionOption {
	return func(s *Session) error {
		s.render = NewRenderMachine(r)
		return nil
	}
}

// WithBindingsFunc registers a callback invoked with the re-resolved binding
// list whenever the main target reports a new element tree.
func WithBindingsFunc(fn func([]FieldBinding)) SessionOption {
	return func(s *Session) error {
		s.onBindings = fn
		return nil
	}
}

// NewSession creates a session around the main preview instance.
func NewSession(main PreviewInstance, opts ...SessionOption) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		store:     NewModificationStore(),
		targets:   NewTargetSet(main),
		logger:    log.Default(),
		collector: metrics.NewCollector(),
		lead:      DefaultSeekLead,
		window:    DefaultDebounceWindow,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("session", s.ID)
	return s, nil
}

// AttachPreview registers a secondary preview under key. Secondaries start
// inactive.
func (s *Session) AttachPreview(key string, inst PreviewInstance) error {
	_, err := s.targets.Attach(key, inst)
	return err
}

// SetPreviewActive toggles whether a secondary preview receives writes.
func (s *Session) SetPreviewActive(key string, active bool) error {
	return s.targets.SetActive(key, active)
}

// Targets returns the session's target set.
func (s *Session) Targets() *TargetSet {
	return s.targets
}

// HandleStateChange ingests a fresh element tree from the main target,
// re-resolves the bindings and notifies the bindings callback. The
// modification store is left untouched: overrides survive template reloads
// within a session.
func (s *Session) HandleStateChange(tree []Element) {
	bindings := ResolveBindings(tree)

	s.mu.Lock()
	s.tree = tree
	s.bindings = bindings
	fn := s.onBindings
	s.mu.Unlock()

	if fn != nil {
		fn(bindings)
	}
}

// Bindings returns the bindings resolved from the last reported element tree.
func (s *Session) Bindings() []FieldBinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FieldBinding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// Binding returns the binding for sourceName, if the current template has one.
func (s *Session) Binding(sourceName string) (FieldBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bindings {
		if b.SourceName == sourceName {
			return b, true
		}
	}
	return FieldBinding{}, false
}

// Modifications returns a snapshot of the current overrides.
func (s *Session) Modifications() map[string]string {
	return s.store.Snapshot()
}

// Store exposes the session's modification store.
func (s *Session) Store() *ModificationStore {
	return s.store
}

// ApplyEdit records one override and fans it out to the main target and every
// active secondary. Per target the pipeline is: seek the element into its
// active window, then push the full modification snapshot. A failing target
// is logged and reported in its outcome; it never blocks the others and
// nothing rolls back. The call returns after every attempt has settled.
func (s *Session) ApplyEdit(ctx context.Context, selector, value string) []Outcome {
	s.store.Apply(selector, value)
	s.collector.EditApplied()

	mods := s.store.Snapshot()
	targets := s.targets.Active()

	outcomes := Broadcast(ctx, targets, func(ctx context.Context, t *Target) error {
		if err := EnsureVisible(ctx, t, selector, s.lead); err != nil {
			return err
		}
		return t.Instance.SetModifications(ctx, mods)
	})

	for _, o := range outcomes {
		if o.Err != nil {
			s.collector.WriteFailed()
			s.logger.Error("preview write failed",
				"target", o.Key, "selector", selector, "err", o.Err)
			continue
		}
		s.collector.WriteApplied()
	}
	return outcomes
}

// ApplyEdits applies a derived expansion: each pair goes through ApplyEdit in
// order, sequentially awaited. The whole run is covered by a single busy flag;
// a failure partway through does not undo earlier writes.
func (s *Session) ApplyEdits(ctx context.Context, edits []Edit) []Outcome {
	s.busy.Add(1)
	defer s.busy.Add(-1)

	var all []Outcome
	for _, e := range edits {
		all = append(all, s.ApplyEdit(ctx, e.Selector, e.Value)...)
	}
	return all
}

// Busy reports whether a derived expansion is currently running. The UI shows
// one loading indicator for the whole expansion.
func (s *Session) Busy() bool {
	return s.busy.Load() > 0
}

// TextChannel returns a debounced channel for a plain-text selector. Values
// that survive the quiet window are handed to ApplyEdit.
func (s *Session) TextChannel(selector string) *TextChannel {
	return NewTextChannel(selector, s.window, func(sel, value string) {
		s.ApplyEdit(context.Background(), sel, value)
	})
}

// SessionStats is a point-in-time view of the session's counters.
type SessionStats struct {
	EditsApplied     int64
	WritesApplied    int64
	WriteFailures    int64
	RendersStarted   int64
	RendersSucceeded int64
	RendersFailed    int64
}

// Stats returns the session's current counters.
func (s *Session) Stats() SessionStats {
	snap := s.collector.Snapshot()
	return SessionStats{
		EditsApplied:     snap.EditsApplied,
		WritesApplied:    snap.WritesApplied,
		WriteFailures:    snap.WriteFailures,
		RendersStarted:   snap.RendersStarted,
		RendersSucceeded: snap.RendersSucceeded,
		RendersFailed:    snap.RendersFailed,
	}
}
