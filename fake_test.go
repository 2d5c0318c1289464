package templatesync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// fakeInstance is an in-memory PreviewInstance recording every call, with
// switchable failures per operation.
type fakeInstance struct {
	mu sync.Mutex

	elements    []Element
	elementsErr error
	setTimeErr  error
	setModsErr  error
	source      json.RawMessage

	seeks  []float64
	pushes []map[string]string
	loaded []string
	calls  []string // operation order: "elements", "seek", "push", "load"
}

func newFakeInstance(elements ...Element) *fakeInstance {
	return &fakeInstance{elements: elements, source: json.RawMessage(`{"elements":[]}`)}
}

func (f *fakeInstance) Elements(ctx context.Context) ([]Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "elements")
	if f.elementsErr != nil {
		return nil, f.elementsErr
	}
	out := make([]Element, len(f.elements))
	copy(out, f.elements)
	return out, nil
}

func (f *fakeInstance) SetTime(ctx context.Context, seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "seek")
	if f.setTimeErr != nil {
		return f.setTimeErr
	}
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeInstance) SetModifications(ctx context.Context, mods map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "push")
	if f.setModsErr != nil {
		return f.setModsErr
	}
	snapshot := make(map[string]string, len(mods))
	for k, v := range mods {
		snapshot[k] = v
	}
	f.pushes = append(f.pushes, snapshot)
	return nil
}

func (f *fakeInstance) Source(ctx context.Context) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source, nil
}

func (f *fakeInstance) LoadTemplate(ctx context.Context, templateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "load")
	f.loaded = append(f.loaded, templateID)
	return nil
}

func (f *fakeInstance) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeInstance) lastPush() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushes) == 0 {
		return nil
	}
	return f.pushes[len(f.pushes)-1]
}

func (f *fakeInstance) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

var errBroken = errors.New("preview gone")
