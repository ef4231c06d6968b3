package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dsgviz/pkg/cache"
	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/metrics"
	"github.com/matzehuels/dsgviz/pkg/server"
	"github.com/matzehuels/dsgviz/pkg/source"
	"github.com/matzehuels/dsgviz/pkg/transport"
	"github.com/matzehuels/dsgviz/pkg/transport/nng"
	transportredis "github.com/matzehuels/dsgviz/pkg/transport/redis"
	"github.com/matzehuels/dsgviz/pkg/visualizer"
)

// defaultDedupRefresh bounds how long a subscriber that dropped a message
// on a lossy transport waits for the full state.
const defaultDedupRefresh = 30 * time.Second

// Dedup backends accepted by --dedup.
const (
	dedupMemory = "memory"
	dedupRedis  = "redis"
	dedupFile   = "file"
	dedupOff    = "off"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	configPath string
	watch      bool
	graph      string
	frame      string
	period     time.Duration
	listen     string

	nngListen string
	nngDial   string
	redisURL  string
	stdout    bool

	dedup        string
	dedupURL     string
	dedupTTL     time.Duration
	dedupRefresh time.Duration
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		watch:        true,
		listen:       defaultListenAddr,
		dedup:        dedupMemory,
		dedupRefresh: defaultDedupRefresh,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the redraw loop and publish markers",
		Long: `Run the redraw loop: every period, if the graph or configuration changed,
rebuild all marker batches and publish them to the configured transports.

A control API (graph upload, config updates, metrics) listens on --listen.
At least one transport is required.`,
		Example: `  dsgviz serve --config dsgviz.toml --graph scene.json --nng tcp://127.0.0.1:5555
  dsgviz serve --graph mongodb://localhost/dsgviz#office --redis redis://localhost:6379/0
  dsgviz serve --stdout --dedup off`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	f.BoolVar(&opts.watch, "watch", opts.watch, "reload the configuration file when it changes")
	f.StringVarP(&opts.graph, "graph", "g", "", "initial graph: file, '-' for stdin, or mongodb:// reference")
	f.StringVar(&opts.frame, "frame", "", "world frame stamped on markers (overrides config)")
	f.DurationVar(&opts.period, "period", 0, "redraw loop period (overrides config)")
	f.StringVar(&opts.listen, "listen", opts.listen, "control API address; empty disables it")
	f.StringVar(&opts.nngListen, "nng", "", "listen for nng SUB peers on this endpoint")
	f.StringVar(&opts.nngDial, "nng-dial", "", "dial an nng SUB peer at this endpoint")
	f.StringVar(&opts.redisURL, "redis", "", "publish to Redis at this URL")
	f.BoolVar(&opts.stdout, "stdout", false, "write envelopes to stdout as JSON lines")
	f.StringVar(&opts.dedup, "dedup", opts.dedup, "last-sent cache: memory, redis, file, or off")
	f.StringVar(&opts.dedupURL, "dedup-url", "", "Redis URL for --dedup redis (defaults to --redis)")
	f.DurationVar(&opts.dedupTTL, "dedup-ttl", 0, "expiry of remembered digests (0 keeps the default)")
	f.DurationVar(&opts.dedupRefresh, "dedup-refresh", opts.dedupRefresh, "send every channel unfiltered at this interval (0 disables)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	file, err := c.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.frame != "" {
		file.WorldFrame = opts.frame
	}
	if opts.period > 0 {
		file.LoopPeriod = opts.period
	}

	pub, err := c.openTransports(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			c.Logger.Warn("close transports", "err", err)
		}
	}()

	reg := metrics.NewRegistry()
	reg.Install()

	store := config.NewStore(file.Snapshot)
	ctl := visualizer.New(store, pub, visualizer.Options{FrameID: file.WorldFrame, Logger: c.Logger})

	if opts.graph != "" {
		prog := newProgress(c.Logger)
		g, err := source.Load(ctx, opts.graph)
		if err != nil {
			return err
		}
		if err := ctl.SetGraph(ctx, g); err != nil {
			return err
		}
		prog.done("loaded graph", "ref", opts.graph, "nodes", g.NumNodes(), "edges", g.NumEdges())
	}

	g, ctx := errgroup.WithContext(ctx)

	if opts.configPath != "" && opts.watch {
		if err := config.Watch(ctx, opts.configPath, store, c.Logger); err != nil {
			return err
		}
		c.Logger.Info("watching config", "path", opts.configPath)
	}

	g.Go(func() error {
		c.Logger.Info("redraw loop started", "period", file.LoopPeriod, "frame", file.WorldFrame)
		return ctl.Run(ctx, file.LoopPeriod)
	})

	if opts.listen != "" {
		srv := server.New(ctl, store, server.Options{Logger: c.Logger, Metrics: reg.Handler()})
		g.Go(func() error {
			c.Logger.Info("control API listening", "addr", opts.listen)
			return srv.ListenAndServe(ctx, opts.listen)
		})
	}

	err = g.Wait()
	st := ctl.Status()
	c.Logger.Info("stopped", "passes", st.Passes)
	return err
}

// =============================================================================
// Transport Wiring
// =============================================================================

// openTransports builds the fan-out of every requested transport, wrapped
// in a dedup stage unless --dedup off.
func (c *CLI) openTransports(ctx context.Context, opts serveOpts) (transport.Transport, error) {
	var fan transport.Fanout
	closeAll := func() { _ = fan.Close() }

	if opts.nngListen != "" {
		p, err := nng.Listen(opts.nngListen)
		if err != nil {
			return nil, err
		}
		fan = append(fan, p)
		c.Logger.Info("nng publisher listening", "addr", opts.nngListen)
	}
	if opts.nngDial != "" {
		p, err := nng.Dial(opts.nngDial)
		if err != nil {
			closeAll()
			return nil, err
		}
		fan = append(fan, p)
		c.Logger.Info("nng publisher dialing", "addr", opts.nngDial)
	}
	if opts.redisURL != "" {
		var p *transportredis.Publisher
		err := withSpinner(ctx, os.Stderr, "Connecting to Redis", func(ctx context.Context) error {
			var err error
			p, err = transportredis.Open(ctx, opts.redisURL, transportredis.Options{})
			return err
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		fan = append(fan, p)
		c.Logger.Info("redis publisher ready", "url", opts.redisURL)
	}
	if opts.stdout {
		fan = append(fan, transport.NewWriter(os.Stdout))
	}
	if len(fan) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no transport configured; set --nng, --nng-dial, --redis, or --stdout")
	}

	if opts.dedup == dedupOff {
		return fan, nil
	}
	dc, err := c.openDedupCache(ctx, opts)
	if err != nil {
		closeAll()
		return nil, err
	}
	return transport.NewDedup(fan, dc, transport.DedupOptions{
		TTL:     opts.dedupTTL,
		Refresh: opts.dedupRefresh,
		Logger:  c.Logger,
	}), nil
}

// openDedupCache returns the last-sent store selected by --dedup.
func (c *CLI) openDedupCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	switch opts.dedup {
	case dedupMemory:
		return cache.NewMemoryCache(), nil
	case dedupRedis:
		url := opts.dedupURL
		if url == "" {
			url = opts.redisURL
		}
		if url == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--dedup redis needs --dedup-url or --redis")
		}
		rc, err := cache.OpenRedisCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return cache.Scoped(rc, appName+":dedup:"), nil
	case dedupFile:
		dir, err := cacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		fc, err := cache.NewFileCache(filepath.Join(dir, "dedup"))
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown --dedup %q (want memory, redis, file, or off)", opts.dedup)
	}
}
