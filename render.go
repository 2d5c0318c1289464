package templatesync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// RenderState is the submission machine's current phase.
type RenderState int

const (
	// RenderIdle: nothing submitted, the UI shows "create".
	RenderIdle RenderState = iota
	// RenderRunning: a submission is awaiting its terminal result.
	RenderRunning
	// RenderReady: the last submission succeeded and a download URL is held.
	RenderReady
)

// String returns a human-readable state name.
func (s RenderState) String() string {
	switch s {
	case RenderIdle:
		return "idle"
	case RenderRunning:
		return "rendering"
	case RenderReady:
		return "ready"
	default:
		return fmt.Sprintf("renderState(%d)", int(s))
	}
}

// RenderStatusSucceeded is the terminal status the render collaborator
// reports for a successful job.
const RenderStatusSucceeded = "succeeded"

// RenderResult is the terminal result of one render job.
type RenderResult struct {
	Status       string `json:"status"`
	URL          string `json:"url,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Renderer submits a template source graph and reports a terminal result.
type Renderer interface {
	Render(ctx context.Context, source json.RawMessage) (RenderResult, error)
}

// RenderMachine drives the Idle -> Rendering -> Ready(url) -> Idle cycle.
// A second submission while one is running is rejected with
// ErrRenderInProgress rather than racing two jobs for the same slot.
type RenderMachine struct {
	renderer Renderer

	mu    sync.Mutex
	state RenderState
	url   string
}

// NewRenderMachine creates an idle machine around the render collaborator.
func NewRenderMachine(r Renderer) *RenderMachine {
	return &RenderMachine{renderer: r}
}

// State returns the machine's current phase.
func (m *RenderMachine) State() RenderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Submit sends the source graph and blocks for the terminal result. On
// success the machine moves to Ready and the download URL is returned; on
// failure it returns to Idle with a user-visible error and the submission can
// simply be retried.
func (m *RenderMachine) Submit(ctx context.Context, source json.RawMessage) (string, error) {
	if err := m.begin(); err != nil {
		return "", err
	}
	return m.settle(m.renderer.Render(ctx, source))
}

// begin claims the running slot.
func (m *RenderMachine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == RenderRunning {
		return ErrRenderInProgress
	}
	m.state = RenderRunning
	m.url = ""
	return nil
}

// settle records the terminal result and releases the slot.
func (m *RenderMachine) settle(result RenderResult, err error) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state = RenderIdle
		return "", fmt.Errorf("render submission failed: %w", err)
	}
	if result.Status != RenderStatusSucceeded {
		m.state = RenderIdle
		if result.ErrorMessage != "" {
			return "", fmt.Errorf("render failed: %s", result.ErrorMessage)
		}
		return "", fmt.Errorf("render finished with status %q", result.Status)
	}

	m.state = RenderReady
	m.url = result.URL
	return result.URL, nil
}

// Download hands out the finished render's URL and returns the machine to
// Idle: the result is one-shot, the next click starts over at "create".
func (m *RenderMachine) Download() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != RenderReady {
		return "", ErrNoRenderReady
	}
	url := m.url
	m.state = RenderIdle
	m.url = ""
	return url, nil
}

// SubmitRender exports the main target's template graph and submits it to the
// session's renderer. The started counter is bumped as soon as the running
// slot is claimed, so an in-flight render shows up in the stats; a duplicate
// submission is rejected before any counting.
func (s *Session) SubmitRender(ctx context.Context) (string, error) {
	if s.render == nil {
		return "", ErrNoRenderer
	}

	source, err := s.targets.Main().Instance.Source(ctx)
	if err != nil {
		return "", fmt.Errorf("export template source: %w", err)
	}

	if err := s.render.begin(); err != nil {
		return "", err
	}
	s.collector.RenderStarted()

	url, err := s.render.settle(s.render.renderer.Render(ctx, source))
	if err != nil {
		s.collector.RenderFailed()
		return "", err
	}
	s.collector.RenderSucceeded()
	return url, nil
}

// RenderState returns the state of the session's render machine. A session
// without a renderer reports RenderIdle.
func (s *Session) RenderState() RenderState {
	if s.render == nil {
		return RenderIdle
	}
	return s.render.State()
}

// DownloadRender returns the finished render's URL and resets the machine.
func (s *Session) DownloadRender() (string, error) {
	if s.render == nil {
		return "", ErrNoRenderer
	}
	return s.render.Download()
}
