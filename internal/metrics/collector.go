package metrics

import (
	"sync/atomic"
	"time"
)

// Collector provides simple built-in counters for one editing session with no
// external dependencies. All methods are safe for concurrent use.
type Collector struct {
	editsApplied     int64
	writesApplied    int64
	writeFailures    int64
	rendersStarted   int64
	rendersSucceeded int64
	rendersFailed    int64
	startTime        time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	EditsApplied     int64         `json:"edits_applied"`
	WritesApplied    int64         `json:"writes_applied"`
	WriteFailures    int64         `json:"write_failures"`
	RendersStarted   int64         `json:"renders_started"`
	RendersSucceeded int64         `json:"renders_succeeded"`
	RendersFailed    int64         `json:"renders_failed"`
	Uptime           time.Duration `json:"uptime"`
}

// NewCollector creates a collector with all counters at zero.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// EditApplied records one logical edit entering the fan-out.
func (c *Collector) EditApplied() {
	atomic.AddInt64(&c.editsApplied, 1)
}

// WriteApplied records one per-target write that settled successfully.
func (c *Collector) WriteApplied() {
	atomic.AddInt64(&c.writesApplied, 1)
}

// WriteFailed records one per-target write that was caught and contained.
func (c *Collector) WriteFailed() {
	atomic.AddInt64(&c.writeFailures, 1)
}

// RenderStarted records one render submission.
func (c *Collector) RenderStarted() {
	atomic.AddInt64(&c.rendersStarted, 1)
}

// RenderSucceeded records one render that reached Ready.
func (c *Collector) RenderSucceeded() {
	atomic.AddInt64(&c.rendersSucceeded, 1)
}

// RenderFailed records one render that returned to Idle with an error.
func (c *Collector) RenderFailed() {
	atomic.AddInt64(&c.rendersFailed, 1)
}

// Snapshot returns a copy of the counters for reporting.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		EditsApplied:     atomic.LoadInt64(&c.editsApplied),
		WritesApplied:    atomic.LoadInt64(&c.writesApplied),
		WriteFailures:    atomic.LoadInt64(&c.writeFailures),
		RendersStarted:   atomic.LoadInt64(&c.rendersStarted),
		RendersSucceeded: atomic.LoadInt64(&c.rendersSucceeded),
		RendersFailed:    atomic.LoadInt64(&c.rendersFailed),
		Uptime:           time.Since(c.startTime),
	}
}
