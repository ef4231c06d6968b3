package transport

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/dsgviz/pkg/marker"
)

// Published is one batch recorded by [Memory].
type Published struct {
	Channel Channel
	Markers marker.Array
}

// Memory records every published batch and latches the last full batch of
// each channel.
type Memory struct {
	mu     sync.Mutex
	log    []Published
	latch  map[Channel]marker.Array
	closed bool
}

// NewMemory creates an empty recording transport.
func NewMemory() *Memory {
	return &Memory{latch: make(map[Channel]marker.Array)}
}

// Publish records a copy of markers and latches it.
func (m *Memory) Publish(ctx context.Context, ch Channel, markers marker.Array) error {
	return m.PublishDelta(ctx, ch, markers, markers)
}

// PublishDelta records a copy of delta, unless empty, and latches full.
func (m *Memory) PublishDelta(ctx context.Context, ch Channel, full, delta marker.Array) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(delta) > 0 || len(full) == 0 {
		m.log = append(m.log, Published{Channel: ch, Markers: slices.Clone(delta)})
	}
	m.latch[ch] = slices.Clone(full)
	return nil
}

// Published returns every batch in publish order.
func (m *Memory) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.log)
}

// Latest returns the last full batch latched on ch.
func (m *Memory) Latest(ch Channel) (marker.Array, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	markers, ok := m.latch[ch]
	return markers, ok
}

// Reset forgets every recorded batch and latch.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.log = nil
	m.latch = make(map[Channel]marker.Array)
	m.mu.Unlock()
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the transport closed. Recorded batches stay readable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

var (
	_ Transport = (*Memory)(nil)
	_ Latcher   = (*Memory)(nil)
)
