package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/transport"
)

func TestKeys(t *testing.T) {
	p := New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), Options{})
	defer p.client.Close()

	if got := p.ChannelKey(transport.ChannelEdges); got != "dsgviz:edges_node_node" {
		t.Errorf("ChannelKey = %q", got)
	}
	if got := p.LatchKey(transport.ChannelEdges); got != "dsgviz:edges_node_node:latest" {
		t.Errorf("LatchKey = %q", got)
	}

	custom := New(p.client, Options{Prefix: "lab/"})
	if got := custom.ChannelKey(transport.ChannelLabels); got != "lab/instance_ids" {
		t.Errorf("custom ChannelKey = %q", got)
	}
}

func TestOpenRejectsBadEndpoint(t *testing.T) {
	tests := []struct {
		url  string
		code dsgerrors.Code
	}{
		{"", dsgerrors.ErrCodeInvalidEndpoint},
		{"tcp://localhost:6379", dsgerrors.ErrCodeInvalidEndpoint},
	}
	for _, tt := range tests {
		_, err := Open(context.Background(), tt.url, Options{})
		if !dsgerrors.Is(err, tt.code) {
			t.Errorf("Open(%q) err = %v, want %s", tt.url, err, tt.code)
		}
	}
}

// TestPublishLatch runs against a live server named by DSGVIZ_REDIS_URL.
func TestPublishLatch(t *testing.T) {
	url := os.Getenv("DSGVIZ_REDIS_URL")
	if url == "" {
		t.Skip("DSGVIZ_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := Open(ctx, url, Options{Prefix: "dsgviz-test:", LatchTTL: time.Minute})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	sub := p.client.Subscribe(ctx, p.ChannelKey(transport.ChannelCentroids))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	batch := marker.Array{{Namespace: "layer_centroids", ID: 2, Type: marker.SphereList, Action: marker.Add}}
	if err := p.Publish(ctx, transport.ChannelCentroids, batch); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	env, err := transport.DecodeEnvelope([]byte(msg.Payload))
	if err != nil || env.Markers[0].ID != 2 {
		t.Errorf("received %+v, %v", env, err)
	}

	latest, ok, err := p.Latest(ctx, transport.ChannelCentroids)
	if err != nil || !ok || latest.Sequence != env.Sequence {
		t.Errorf("Latest = %+v, %v, %v, want sequence %d", latest, ok, err, env.Sequence)
	}
}

// TestPublishDeltaLatchesFullBatch runs against a live server named by
// DSGVIZ_REDIS_URL.
func TestPublishDeltaLatchesFullBatch(t *testing.T) {
	url := os.Getenv("DSGVIZ_REDIS_URL")
	if url == "" {
		t.Skip("DSGVIZ_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := Open(ctx, url, Options{Prefix: "dsgviz-test-delta:", LatchTTL: time.Minute})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	full := marker.Array{
		{Namespace: "c", ID: 1, Type: marker.Sphere, Action: marker.Add},
		{Namespace: "c", ID: 2, Type: marker.Sphere, Action: marker.Add},
		{Namespace: "c", ID: 3, Type: marker.Sphere, Action: marker.Add},
	}
	if err := p.PublishDelta(ctx, transport.ChannelCentroids, full, full[2:]); err != nil {
		t.Fatalf("PublishDelta: %v", err)
	}

	latest, ok, err := p.Latest(ctx, transport.ChannelCentroids)
	if err != nil || !ok {
		t.Fatalf("Latest = %v, %v", ok, err)
	}
	if len(latest.Markers) != len(full) {
		t.Errorf("latched markers = %d, want %d", len(latest.Markers), len(full))
	}
}
