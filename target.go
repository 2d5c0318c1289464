package templatesync

import (
	"context"
	"encoding/json"
	"sync"
)

// PreviewInstance is the contract a live preview must satisfy. The session
// depends only on this interface, not on any particular preview SDK; the
// bundled websocket client in internal/preview is one implementation.
type PreviewInstance interface {
	// Elements returns the element tree of the currently loaded template.
	Elements(ctx context.Context) ([]Element, error)

	// SetTime seeks the instance's playhead to the given offset in seconds.
	SetTime(ctx context.Context, seconds float64) error

	// SetModifications replaces the instance's property overrides with the
	// given set and re-renders.
	SetModifications(ctx context.Context, mods map[string]string) error

	// Source exports the instance's current template graph, overrides
	// included, in the render collaborator's input format.
	Source(ctx context.Context) (json.RawMessage, error)

	// LoadTemplate loads a template by ID, replacing the element tree.
	LoadTemplate(ctx context.Context, templateID string) error
}

// Target couples a preview instance with its activation state. The main
// target is always active; additional targets (typically other aspect-ratio
// variants of the same template) are toggled independently by the user.
type Target struct {
	Key      string
	Instance PreviewInstance

	main   bool
	mu     sync.RWMutex
	active bool
}

// Main reports whether this is the session's main target.
func (t *Target) Main() bool { return t.main }

// Active reports whether the target currently receives fan-out writes.
func (t *Target) Active() bool {
	if t.main {
		return true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

func (t *Target) setActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = active
}

// TargetSet tracks the main preview target plus any attached secondaries.
// The set's shape is fixed once previews are attached; afterwards only the
// activation flags change.
type TargetSet struct {
	mu         sync.RWMutex
	main       *Target
	additional []*Target // attach order preserved
	byKey      map[string]*Target
}

// MainTargetKey is the key the main target is registered under.
const MainTargetKey = "main"

// NewTargetSet creates a set around the main preview instance.
func NewTargetSet(main PreviewInstance) *TargetSet {
	mt := &Target{Key: MainTargetKey, Instance: main, main: true}
	return &TargetSet{
		main:  mt,
		byKey: map[string]*Target{MainTargetKey: mt},
	}
}

// Main returns the main target.
func (ts *TargetSet) Main() *Target {
	return ts.main
}

// Attach registers a secondary preview under key. New targets start inactive;
// the user opts each one into the fan-out explicitly.
func (ts *TargetSet) Attach(key string, inst PreviewInstance) (*Target, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.byKey[key]; exists {
		return nil, ErrTargetExists
	}
	t := &Target{Key: key, Instance: inst}
	ts.additional = append(ts.additional, t)
	ts.byKey[key] = t
	return t, nil
}

// SetActive toggles a secondary target's participation in the fan-out.
func (ts *TargetSet) SetActive(key string, active bool) error {
	ts.mu.RLock()
	t, ok := ts.byKey[key]
	ts.mu.RUnlock()
	if !ok {
		return ErrNoSuchTarget
	}
	if t.main {
		return ErrMainTargetAlwaysActive
	}
	t.setActive(active)
	return nil
}

// Get returns the target attached under key.
func (ts *TargetSet) Get(key string) (*Target, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.byKey[key]
	return t, ok
}

// Active returns the targets that receive the next write: the main target
// first, then active secondaries in attach order. The slice is a copy.
func (ts *TargetSet) Active() []*Target {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := []*Target{ts.main}
	for _, t := range ts.additional {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// All returns every attached target, main first, in attach order.
func (ts *TargetSet) All() []*Target {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := []*Target{ts.main}
	out = append(out, ts.additional...)
	return out
}
