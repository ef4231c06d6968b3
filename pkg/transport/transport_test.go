package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/dsgviz/pkg/marker"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, Channel, marker.Array) error { return f.err }
func (f failing) Close() error                                         { return f.err }

func sphere(ns string, id int64, x float64) marker.Marker {
	return marker.Marker{
		Namespace: ns,
		ID:        id,
		Type:      marker.Sphere,
		Action:    marker.Add,
		Pose:      marker.Pose{Position: marker.Point{X: x}, Orientation: marker.Quaternion{W: 1}},
		Scale:     marker.Uniform(0.1),
	}
}

func TestChannels(t *testing.T) {
	want := []Channel{
		"semantic_instance_centroid",
		"bounding_boxes",
		"instance_ids",
		"edges_centroid_pcl",
		"edges_node_node",
	}
	if len(Channels) != len(want) {
		t.Fatalf("len(Channels) = %d, want %d", len(Channels), len(want))
	}
	for i, ch := range Channels {
		if ch != want[i] {
			t.Errorf("Channels[%d] = %q, want %q", i, ch, want[i])
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	seq := NewSequencer()
	env := seq.Next(ChannelLabels, marker.Array{sphere("layer_2_labels", 4, 1)})

	if env.Source == "" || env.Source != seq.Source() {
		t.Errorf("Source = %q, want sequencer source %q", env.Source, seq.Source())
	}
	if env.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", env.Sequence)
	}
	if next := seq.Next(ChannelLabels, nil); next.Sequence != 2 {
		t.Errorf("second Sequence = %d, want 2", next.Sequence)
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if got.Channel != ChannelLabels || len(got.Markers) != 1 || got.Markers[0].ID != 4 {
		t.Errorf("decoded = %+v", got)
	}

	if _, err := DecodeEnvelope([]byte("{")); err == nil {
		t.Error("DecodeEnvelope should reject malformed JSON")
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	batch := marker.Array{sphere("a", 1, 0)}
	_ = m.Publish(ctx, ChannelCentroids, batch)
	_ = m.Publish(ctx, ChannelEdges, marker.Array{sphere("b", 2, 0)})
	_ = m.Publish(ctx, ChannelCentroids, marker.Array{sphere("a", 1, 5)})
	batch[0].ID = 99

	if n := len(m.Published()); n != 3 {
		t.Fatalf("len(Published) = %d, want 3", n)
	}
	if m.Published()[0].Markers[0].ID != 1 {
		t.Error("Memory should copy published batches")
	}

	latest, ok := m.Latest(ChannelCentroids)
	if !ok || latest[0].Pose.Position.X != 5 {
		t.Errorf("Latest = %v, %v, want the second centroid batch", latest, ok)
	}
	if _, ok := m.Latest(ChannelLabels); ok {
		t.Error("Latest on an unused channel should report false")
	}

	m.Reset()
	if len(m.Published()) != 0 {
		t.Error("Reset should forget batches")
	}

	_ = m.Close()
	if !m.Closed() {
		t.Error("Closed() should be true after Close")
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_ = w.Publish(context.Background(), ChannelCentroids, marker.Array{sphere("a", 1, 0)})
	_ = w.Publish(context.Background(), ChannelEdges, marker.Array{marker.NewDeleteAll()})

	sc := bufio.NewScanner(&buf)
	var envs []Envelope
	for sc.Scan() {
		env, err := DecodeEnvelope(sc.Bytes())
		if err != nil {
			t.Fatalf("line %d: %v", len(envs), err)
		}
		envs = append(envs, env)
	}
	if len(envs) != 2 {
		t.Fatalf("lines = %d, want 2", len(envs))
	}
	if envs[1].Channel != ChannelEdges || envs[1].Markers[0].Action != marker.DeleteAll {
		t.Errorf("second envelope = %+v", envs[1])
	}
	if envs[0].Sequence >= envs[1].Sequence {
		t.Errorf("sequence should increase: %d, %d", envs[0].Sequence, envs[1].Sequence)
	}
}

func TestFanout(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	boom := errors.New("boom")
	f := Fanout{a, failing{err: boom}, b}

	err := f.Publish(context.Background(), ChannelLabels, marker.Array{sphere("x", 1, 0)})
	if !errors.Is(err, boom) {
		t.Errorf("Publish err = %v, want boom", err)
	}
	if len(a.Published()) != 1 || len(b.Published()) != 1 {
		t.Error("Fanout should publish to every transport despite a failure")
	}

	if err := f.Close(); !errors.Is(err, boom) {
		t.Errorf("Close err = %v, want boom", err)
	}
	if !a.Closed() || !b.Closed() {
		t.Error("Fanout should close every transport")
	}
}
