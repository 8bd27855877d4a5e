package resulty

import "sync"

// UsageEvent is one engine-reported usage notification.
type UsageEvent struct {
	Function     string
	InputTokens  int64
	OutputTokens int64
}

// UsageStats aggregates a collector's recorded events. Calls counts events.
type UsageStats struct {
	Calls        int64
	InputTokens  int64
	OutputTokens int64
}

// Collector accumulates usage events across one or more invocations. The log
// is append-only and safe for concurrent Record calls, so a single collector
// may be deliberately shared across simultaneous calls. Names are
// caller-supplied and carry no uniqueness constraint.
type Collector struct {
	name string

	mu     sync.Mutex
	events []UsageEvent
}

// NewCollector creates a collector with the given name.
func NewCollector(name string) *Collector {
	return &Collector{name: name}
}

// Name returns the caller-supplied collector name.
func (c *Collector) Name() string { return c.name }

// Record appends an event to the log.
func (c *Collector) Record(ev UsageEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a copy of the recorded log in arrival order.
func (c *Collector) Events() []UsageEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]UsageEvent(nil), c.events...)
}

// Usage aggregates over the log at call time. It is recomputed on every
// call, never cached, so it reflects events recorded since the last read.
func (c *Collector) Usage() UsageStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var st UsageStats
	for _, ev := range c.events {
		st.Calls++
		st.InputTokens += ev.InputTokens
		st.OutputTokens += ev.OutputTokens
	}
	return st
}
