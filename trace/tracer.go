package trace

import (
	"github.com/sarchlab/akita/v4/sim"
)

// DefaultCapacity is the number of entries a Tracer keeps by default.
const DefaultCapacity = 1024

// Filter selects which entries a Tracer records.
type Filter struct {
	BranchesOnly bool `json:"branches_only"`
	MemoryOnly   bool `json:"memory_only"`

	// PC window. A zero EndPC means no upper bound.
	StartPC uint32 `json:"start_pc"`
	EndPC   uint32 `json:"end_pc"`
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *Entry) bool {
	if f.BranchesOnly && !e.IsBranch() {
		return false
	}
	if f.MemoryOnly && !e.IsMemory() {
		return false
	}
	if e.PC < f.StartPC {
		return false
	}
	if f.EndPC != 0 && e.PC > f.EndPC {
		return false
	}
	return true
}

// Sink receives every recorded entry.
type Sink interface {
	Write(e *Entry) error
}

// Tracer is a circular buffer of the most recent retired instructions. It
// implements sim.Hook and records every trace.Entry published to it.
type Tracer struct {
	entries []Entry
	head    int // index of the oldest entry
	count   int
	total   uint64

	enabled bool
	filter  Filter
	sinks   []Sink
	sinkErr error
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithFilter sets the entry filter.
func WithFilter(f Filter) TracerOption {
	return func(t *Tracer) {
		t.filter = f
	}
}

// WithSink adds a sink that receives each recorded entry.
func WithSink(s Sink) TracerOption {
	return func(t *Tracer) {
		t.sinks = append(t.sinks, s)
	}
}

// NewTracer creates an enabled tracer holding up to capacity entries.
// A capacity below 1 selects DefaultCapacity.
func NewTracer(capacity int, opts ...TracerOption) *Tracer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	t := &Tracer{
		entries: make([]Entry, capacity),
		enabled: true,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Func records the entry carried by a retire hook.
func (t *Tracer) Func(ctx sim.HookCtx) {
	switch item := ctx.Item.(type) {
	case Entry:
		t.Record(item)
	case *Entry:
		t.Record(*item)
	}
}

// Record appends e if the tracer is enabled and e passes the filter. Once
// the buffer is full the oldest entry is overwritten.
func (t *Tracer) Record(e Entry) {
	if !t.enabled || !t.filter.Match(&e) {
		return
	}

	capacity := len(t.entries)
	if t.count < capacity {
		t.entries[(t.head+t.count)%capacity] = e
		t.count++
	} else {
		t.entries[t.head] = e
		t.head = (t.head + 1) % capacity
	}
	t.total++

	for _, s := range t.sinks {
		if err := s.Write(&e); err != nil && t.sinkErr == nil {
			t.sinkErr = err
		}
	}
}

// Entries returns the buffered entries, oldest first.
func (t *Tracer) Entries() []Entry {
	out := make([]Entry, t.count)
	for i := range out {
		out[i] = t.entries[(t.head+i)%len(t.entries)]
	}
	return out
}

// Last returns up to n most recent entries, oldest first.
func (t *Tracer) Last(n int) []Entry {
	all := t.Entries()
	if n < len(all) {
		return all[len(all)-n:]
	}
	return all
}

// Len returns the number of buffered entries.
func (t *Tracer) Len() int { return t.count }

// Capacity returns the maximum number of buffered entries.
func (t *Tracer) Capacity() int { return len(t.entries) }

// Total returns the number of entries recorded since the last Clear,
// including overwritten ones.
func (t *Tracer) Total() uint64 { return t.total }

// Enabled reports whether the tracer is recording.
func (t *Tracer) Enabled() bool { return t.enabled }

// SetEnabled turns recording on or off.
func (t *Tracer) SetEnabled(on bool) { t.enabled = on }

// Filter returns the active filter.
func (t *Tracer) Filter() Filter { return t.filter }

// SetFilter replaces the active filter.
func (t *Tracer) SetFilter(f Filter) { t.filter = f }

// Err returns the first error reported by a sink.
func (t *Tracer) Err() error { return t.sinkErr }

// Clear drops all buffered entries.
func (t *Tracer) Clear() {
	t.head = 0
	t.count = 0
	t.total = 0
	t.sinkErr = nil
}
