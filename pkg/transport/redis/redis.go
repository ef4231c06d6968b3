// Package redis publishes marker batches on Redis pub/sub.
//
// Every batch is published on "<prefix><channel>" and the full batch is
// stored under "<prefix><channel>:latest", so a renderer that subscribes
// late can read the complete state of each channel before consuming the
// live stream. Behind a dedup stage the live stream carries only changed
// markers while the latch still holds everything.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/transport"
)

// DefaultPrefix namespaces channel and latch keys.
const DefaultPrefix = "dsgviz:"

// Options configures a [Publisher].
type Options struct {
	// Prefix is prepended to every pub/sub channel and latch key.
	Prefix string

	// LatchTTL expires latched batches. Zero keeps them indefinitely.
	LatchTTL time.Duration

	// ConnectAttempts bounds the initial ping retries.
	ConnectAttempts int
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 3
	}
}

// Publisher is a transport over a Redis client.
type Publisher struct {
	client *redis.Client
	owned  bool
	opts   Options
	seq    *transport.Sequencer
}

// New wraps an existing client. Close leaves the client open.
func New(client *redis.Client, opts Options) *Publisher {
	opts.SetDefaults()
	return &Publisher{client: client, opts: opts, seq: transport.NewSequencer()}
}

// Open connects to a redis:// URL, retrying the initial ping.
func Open(ctx context.Context, url string, opts Options) (*Publisher, error) {
	opts.SetDefaults()
	if err := dsgerrors.ValidateEndpoint(url); err != nil {
		return nil, err
	}
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.ErrCodeInvalidEndpoint, err, "parse %s", url)
	}
	client := redis.NewClient(ropts)

	err = dsgerrors.RetryWithBackoff(ctx, opts.ConnectAttempts, 500*time.Millisecond, func() error {
		return dsgerrors.Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		_ = client.Close()
		return nil, dsgerrors.Wrap(dsgerrors.ErrCodeTransport, err, "connect %s", ropts.Addr)
	}

	p := New(client, opts)
	p.owned = true
	return p, nil
}

// ChannelKey returns the pub/sub channel used for ch.
func (p *Publisher) ChannelKey(ch transport.Channel) string {
	return p.opts.Prefix + string(ch)
}

// LatchKey returns the key holding the last batch of ch.
func (p *Publisher) LatchKey(ch transport.Channel) string {
	return p.ChannelKey(ch) + ":latest"
}

// Publish publishes the envelope and latches it in one transaction.
func (p *Publisher) Publish(ctx context.Context, ch transport.Channel, markers marker.Array) error {
	return p.PublishDelta(ctx, ch, markers, markers)
}

// PublishDelta publishes delta and latches full in one transaction. The
// latched envelope carries the sequence of the delta it accompanies, so a
// late subscriber can skip live messages it already holds. An empty delta
// only rewrites the latch.
func (p *Publisher) PublishDelta(ctx context.Context, ch transport.Channel, full, delta marker.Array) error {
	env := p.seq.Next(ch, delta)
	latched := env
	latched.Markers = full

	live, err := env.Encode()
	if err != nil {
		return dsgerrors.Wrap(dsgerrors.ErrCodeInternal, err, "encode %s", ch)
	}
	snapshot, err := latched.Encode()
	if err != nil {
		return dsgerrors.Wrap(dsgerrors.ErrCodeInternal, err, "encode latch %s", ch)
	}
	stream := len(delta) > 0 || len(full) == 0

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if stream {
			pipe.Publish(ctx, p.ChannelKey(ch), live)
		}
		pipe.Set(ctx, p.LatchKey(ch), snapshot, p.opts.LatchTTL)
		return nil
	})
	if err != nil {
		return dsgerrors.Wrap(dsgerrors.ErrCodeTransport, err, "publish %s", ch)
	}
	return nil
}

// Latest returns the latched batch of ch, if any.
func (p *Publisher) Latest(ctx context.Context, ch transport.Channel) (transport.Envelope, bool, error) {
	data, err := p.client.Get(ctx, p.LatchKey(ch)).Bytes()
	if errors.Is(err, redis.Nil) {
		return transport.Envelope{}, false, nil
	}
	if err != nil {
		return transport.Envelope{}, false, dsgerrors.Wrap(dsgerrors.ErrCodeTransport, err, "read latch %s", ch)
	}
	env, err := transport.DecodeEnvelope(data)
	if err != nil {
		return transport.Envelope{}, false, dsgerrors.Wrap(dsgerrors.ErrCodeInvalidInput, err, "decode latch %s", ch)
	}
	return env, true, nil
}

// Close closes the client if Open created it.
func (p *Publisher) Close() error {
	if p.owned {
		return p.client.Close()
	}
	return nil
}

var (
	_ transport.Transport = (*Publisher)(nil)
	_ transport.Latcher   = (*Publisher)(nil)
)
