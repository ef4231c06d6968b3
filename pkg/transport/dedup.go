package transport

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dsgviz/pkg/cache"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/observability"
)

// DedupOptions configures a [Dedup] transport.
type DedupOptions struct {
	// TTL bounds how long a digest is remembered. Zero keeps digests until
	// the key is deleted.
	TTL time.Duration

	// Refresh forwards a channel's batch unfiltered when this long has
	// passed since its last unfiltered batch, which repairs subscribers
	// that missed messages on lossy transports. The first batch of each
	// channel is always unfiltered. Zero disables refreshes.
	Refresh time.Duration

	// Logger receives cache failures. Defaults to a discard logger.
	Logger *log.Logger
}

// SetDefaults fills unset options.
func (o *DedupOptions) SetDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Dedup forwards only markers that differ from what was last sent under
// the same (channel, namespace, id).
//
// Adds whose geometry matches the stored digest are dropped from the live
// stream. Deletes are always forwarded and forget the key. A delete-all
// advances the channel's epoch in the digest store, which invalidates every
// digest of that channel, including ones written by earlier processes or
// other instances sharing the cache.
//
// The inner transport receives the delta through [PublishDelta]: a
// [Latcher] also gets the unfiltered batch, so its latch always holds the
// complete channel state. Digests are only stored after the inner transport
// accepts the batch, so a failed publish is retried in full on the next
// pass. Cache read failures fail open.
type Dedup struct {
	next    Transport
	digests *cache.DigestStore
	opts    DedupOptions
	now     func() time.Time

	mu       sync.Mutex
	sent     map[Channel]map[marker.Key]struct{}
	epochs   map[Channel]string
	lastFull map[Channel]time.Time
	dropped  atomic.Int64
}

// NewDedup wraps next, remembering digests in c. A nil c keeps digests in
// memory. Close closes both next and c.
func NewDedup(next Transport, c cache.Cache, opts DedupOptions) *Dedup {
	opts.SetDefaults()
	return &Dedup{
		next:     next,
		digests:  cache.NewDigestStore(c, opts.TTL),
		opts:     opts,
		now:      time.Now,
		sent:     make(map[Channel]map[marker.Key]struct{}),
		epochs:   make(map[Channel]string),
		lastFull: make(map[Channel]time.Time),
	}
}

type digestChange struct {
	key    marker.Key
	digest cache.Digest // empty for a delete
}

// Publish filters markers and forwards the remainder.
func (d *Dedup) Publish(ctx context.Context, ch Channel, markers marker.Array) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	epoch := d.epoch(ctx, ch)
	refresh := d.refreshDue(ch)

	delta := make(marker.Array, 0, len(markers))
	staged := make(map[marker.Key]cache.Digest)
	var changes []digestChange
	cleared := false

	for _, m := range markers {
		k := m.Key()
		switch m.Action {
		case marker.DeleteAll:
			cleared = true
			staged = make(map[marker.Key]cache.Digest)
			changes = nil
		case marker.Delete:
			staged[k] = ""
			changes = append(changes, digestChange{key: k})
		default:
			dg := digest(m)
			prev, ok := staged[k]
			if !ok && !cleared && !refresh {
				prev, ok = d.lookup(ctx, ch, epoch, k)
			}
			if ok && dg != "" && prev == dg && !refresh {
				d.dropped.Add(1)
				observability.Cache().OnCacheHit(ctx, string(ch))
				continue
			}
			observability.Cache().OnCacheMiss(ctx, string(ch))
			staged[k] = dg
			changes = append(changes, digestChange{key: k, digest: dg})
		}
		delta = append(delta, m)
	}

	if err := PublishDelta(ctx, d.next, ch, markers, delta); err != nil {
		return err
	}
	if len(delta) == len(markers) {
		d.lastFull[ch] = d.now()
	}

	if cleared {
		epoch = d.advance(ctx, ch, epoch)
	}
	for _, c := range changes {
		if c.digest == "" {
			d.forget(ctx, ch, epoch, c.key)
			continue
		}
		d.remember(ctx, ch, epoch, c.key, c.digest)
	}
	return nil
}

// Dropped returns how many markers were suppressed so far.
func (d *Dedup) Dropped() int64 { return d.dropped.Load() }

// Close closes the inner transport and the digest cache.
func (d *Dedup) Close() error {
	err := d.next.Close()
	if cerr := d.digests.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *Dedup) refreshDue(ch Channel) bool {
	if d.opts.Refresh <= 0 {
		return false
	}
	last, ok := d.lastFull[ch]
	return !ok || d.now().Sub(last) >= d.opts.Refresh
}

// epoch reads the shared epoch of ch, falling back to the last one seen.
func (d *Dedup) epoch(ctx context.Context, ch Channel) string {
	e, err := d.digests.Epoch(ctx, string(ch))
	if err != nil {
		d.opts.Logger.Warn("epoch lookup failed", "channel", ch, "err", err)
		return d.epochs[ch]
	}
	d.epochs[ch] = e
	return e
}

// advance drops the digests this process knows about and starts a new
// epoch for the rest. It returns the epoch to store new digests under.
func (d *Dedup) advance(ctx context.Context, ch Channel, old string) string {
	for k := range d.sent[ch] {
		d.forget(ctx, ch, old, k)
	}
	delete(d.sent, ch)

	next, err := d.digests.Advance(ctx, string(ch))
	if err != nil {
		d.opts.Logger.Warn("epoch advance failed", "channel", ch, "err", err)
		return old
	}
	d.epochs[ch] = next
	return next
}

func (d *Dedup) lookup(ctx context.Context, ch Channel, epoch string, k marker.Key) (cache.Digest, bool) {
	dg, ok, err := d.digests.Get(ctx, string(ch), epoch, k)
	if err != nil {
		d.opts.Logger.Warn("digest lookup failed, forwarding marker", "channel", ch, "ns", k.Namespace, "id", k.ID, "err", err)
		return "", false
	}
	return dg, ok
}

func (d *Dedup) remember(ctx context.Context, ch Channel, epoch string, k marker.Key, dg cache.Digest) {
	if err := d.digests.Put(ctx, string(ch), epoch, k, dg); err != nil {
		d.opts.Logger.Warn("digest store failed", "channel", ch, "ns", k.Namespace, "id", k.ID, "digest", dg.Short(), "err", err)
		return
	}
	keys := d.sent[ch]
	if keys == nil {
		keys = make(map[marker.Key]struct{})
		d.sent[ch] = keys
	}
	keys[k] = struct{}{}
}

func (d *Dedup) forget(ctx context.Context, ch Channel, epoch string, k marker.Key) {
	if err := d.digests.Forget(ctx, string(ch), epoch, k); err != nil {
		d.opts.Logger.Warn("digest delete failed", "channel", ch, "ns", k.Namespace, "id", k.ID, "err", err)
	}
	delete(d.sent[ch], k)
}

// digest hashes everything but the header, which changes every pass. An
// unencodable marker gets the empty digest and is always forwarded.
func digest(m marker.Marker) cache.Digest {
	m.Header = marker.Header{}
	dg, err := cache.Sum(m)
	if err != nil {
		return ""
	}
	return dg
}

var _ Transport = (*Dedup)(nil)
