package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/matzehuels/dsgviz/pkg/marker"
)

// Channel names a renderer topic.
type Channel string

// The five channels a visualizer publishes on.
const (
	ChannelCentroids     Channel = "semantic_instance_centroid"
	ChannelBoundingBoxes Channel = "bounding_boxes"
	ChannelLabels        Channel = "instance_ids"
	ChannelMeshEdges     Channel = "edges_centroid_pcl"
	ChannelEdges         Channel = "edges_node_node"
)

// Channels lists every channel in publish order.
var Channels = []Channel{
	ChannelCentroids,
	ChannelBoundingBoxes,
	ChannelLabels,
	ChannelMeshEdges,
	ChannelEdges,
}

// Transport publishes marker batches.
//
// Publish must not retain markers after it returns. Implementations must be
// safe for concurrent use.
type Transport interface {
	Publish(ctx context.Context, ch Channel, markers marker.Array) error
	Close() error
}

// Latcher is implemented by transports that keep the last full batch of
// each channel for late subscribers.
//
// PublishDelta streams delta to live subscribers and latches full. An empty
// delta only refreshes the latch.
type Latcher interface {
	PublishDelta(ctx context.Context, ch Channel, full, delta marker.Array) error
}

// PublishDelta sends delta through t, latching full when t is a [Latcher].
// Plain transports get delta alone, and nothing when delta is empty.
func PublishDelta(ctx context.Context, t Transport, ch Channel, full, delta marker.Array) error {
	if l, ok := t.(Latcher); ok {
		return l.PublishDelta(ctx, ch, full, delta)
	}
	if len(delta) == 0 {
		return nil
	}
	return t.Publish(ctx, ch, delta)
}

// =============================================================================
// Envelope
// =============================================================================

// Envelope is the wire form of one published batch.
type Envelope struct {
	Source   string       `json:"source"`
	Channel  Channel      `json:"channel"`
	Sequence uint64       `json:"sequence"`
	Markers  marker.Array `json:"markers"`
}

// Encode returns the JSON encoding of e.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses the JSON encoding of an envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// Sequencer stamps envelopes with a per-process source id and a
// monotonically increasing sequence number.
type Sequencer struct {
	source string
	seq    atomic.Uint64
}

// NewSequencer creates a sequencer with a random source id.
func NewSequencer() *Sequencer {
	return &Sequencer{source: uuid.NewString()}
}

// Source returns the id stamped on every envelope.
func (s *Sequencer) Source() string { return s.source }

// Next wraps markers in an envelope with the next sequence number.
func (s *Sequencer) Next(ch Channel, markers marker.Array) Envelope {
	return Envelope{
		Source:   s.source,
		Channel:  ch,
		Sequence: s.seq.Add(1),
		Markers:  markers,
	}
}

// =============================================================================
// Fanout
// =============================================================================

// Fanout publishes every batch to each of its transports.
type Fanout []Transport

// Publish sends to every transport and joins their errors.
func (f Fanout) Publish(ctx context.Context, ch Channel, markers marker.Array) error {
	var errs []error
	for _, t := range f {
		if err := t.Publish(ctx, ch, markers); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishDelta forwards full and delta to each transport via [PublishDelta].
func (f Fanout) PublishDelta(ctx context.Context, ch Channel, full, delta marker.Array) error {
	var errs []error
	for _, t := range f {
		if err := PublishDelta(ctx, t, ch, full, delta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport and joins their errors.
func (f Fanout) Close() error {
	var errs []error
	for _, t := range f {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Latcher = Fanout(nil)
