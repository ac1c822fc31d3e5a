// Package profiler - Operation timing statistics for batch runs.
package profiler

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	Name  string
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Average returns the mean duration, 0 before the first sample.
func (t TimeTracker) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// Timings collects durations per named operation. It is safe for concurrent use.
type Timings struct {
	mu    sync.Mutex
	ops   map[string]*TimeTracker
	order []string
	start time.Time
}

// NewTimings creates an empty collector.
func NewTimings() *Timings {
	return &Timings{
		ops:   make(map[string]*TimeTracker),
		start: time.Now(),
	}
}

// StartOperation starts timing an operation and returns the function that stops it.
//
// Arguments:
//   - name: The operation name.
//
// Returns:
//   - A function to call when the operation completes.
//
// @example
// done := timings.StartOperation("classify")
// boxes, err := d.Classify(img, 0)
// done()
func (t *Timings) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		t.Record(name, time.Since(start))
	}
}

// Record adds one sample for name.
func (t *Timings) Record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracker, ok := t.ops[name]
	if !ok {
		tracker = &TimeTracker{Name: name, Min: d, Max: d}
		t.ops[name] = tracker
		t.order = append(t.order, name)
	}

	tracker.Count++
	tracker.Total += d
	if d < tracker.Min {
		tracker.Min = d
	}
	if d > tracker.Max {
		tracker.Max = d
	}
}

// Snapshot returns a copy of every tracker in the order operations were first seen.
func (t *Timings) Snapshot() []TimeTracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TimeTracker, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.ops[name])
	}
	return out
}

// Log writes one info entry per operation and a closing entry with the wall time and heap
// size.
func (t *Timings) Log(log logrus.FieldLogger) {
	for _, op := range t.Snapshot() {
		log.WithFields(logrus.Fields{
			"operation": op.Name,
			"count":     op.Count,
			"avg":       op.Average().Truncate(time.Microsecond),
			"min":       op.Min.Truncate(time.Microsecond),
			"max":       op.Max.Truncate(time.Microsecond),
		}).Info("operation timings")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.WithFields(logrus.Fields{
		"uptime":     time.Since(t.start).Truncate(time.Millisecond),
		"heap_alloc": formatBytes(mem.HeapAlloc),
		"gc_cycles":  mem.NumGC,
	}).Info("run complete")
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
