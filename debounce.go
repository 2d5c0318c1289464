package templatesync

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period a text field waits for before a
// buffered value is propagated to the previews.
const DefaultDebounceWindow = 300 * time.Millisecond

// TextChannel buffers rapid free-text edits on one selector. Every keystroke
// replaces the pending value and re-arms a trailing-edge timer; only after the
// window elapses with no further input does the latest value reach the emit
// function. A superseding keystroke cancels the pending timer, so a stale
// value is never emitted after a newer one.
//
// The UI echoes keystrokes locally and synchronously; the channel only gates
// what reaches the fan-out.
type TextChannel struct {
	selector string
	window   time.Duration
	emit     func(selector, value string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	armed   bool
	closed  bool
}

// NewTextChannel creates a debounced channel for one selector. emit is called
// from a timer goroutine once per quiet window with the latest value.
func NewTextChannel(selector string, window time.Duration, emit func(selector, value string)) *TextChannel {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &TextChannel{
		selector: selector,
		window:   window,
		emit:     emit,
	}
}

// Input records a keystroke's current value and re-arms the timer.
func (c *TextChannel) Input(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending = value
	c.armed = true

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.fire)
}

func (c *TextChannel) fire() {
	c.mu.Lock()
	if c.closed || !c.armed {
		c.mu.Unlock()
		return
	}
	value := c.pending
	c.armed = false
	c.mu.Unlock()

	c.emit(c.selector, value)
}

// Flush propagates a pending value immediately instead of waiting out the
// window. A channel with nothing pending is a no-op.
func (c *TextChannel) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.fire()
}

// Close cancels any pending value and makes further input a no-op.
func (c *TextChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.armed = false
	if c.timer != nil {
		c.timer.Stop()
	}
}
