package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
	"github.com/matzehuels/dsgviz/pkg/source"
	"github.com/matzehuels/dsgviz/pkg/transport"
	"github.com/matzehuels/dsgviz/pkg/visualizer"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	configPath string
	frame      string
	output     string
	quiet      bool
}

// renderCommand creates the render command for one-shot passes.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Run one pass over a graph",
		Long: `Run a single redraw pass over a graph and summarize the batches it produced.

With --output the envelopes are also written as JSON lines, one per
channel, to the given file ("-" for stdout).`,
		Example: `  dsgviz render scene.json
  dsgviz render scene.json --config dsgviz.yaml -o markers.jsonl
  cat scene.json | dsgviz render - -o - --quiet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	cmd.Flags().StringVar(&opts.frame, "frame", "", "world frame stamped on markers (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write envelopes as JSON lines to this file")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "skip the summary")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, stdout io.Writer, ref string, opts renderOpts) error {
	file, err := c.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.frame != "" {
		file.WorldFrame = opts.frame
	}

	prog := newProgress(c.Logger)
	g, err := source.Load(ctx, ref)
	if err != nil {
		return err
	}
	prog.done("loaded graph", "ref", ref, "nodes", g.NumNodes())

	mem := transport.NewMemory()
	fan := transport.Fanout{mem}
	if opts.output != "" {
		w := stdout
		if opts.output != "-" {
			f, err := os.Create(opts.output)
			if err != nil {
				return fmt.Errorf("create %s: %w", opts.output, err)
			}
			defer f.Close()
			w = f
		}
		fan = append(fan, transport.NewWriter(w))
	}

	ctl := visualizer.New(config.NewStore(file.Snapshot), fan, visualizer.Options{FrameID: file.WorldFrame, Logger: c.Logger})
	if err := ctl.SetGraph(ctx, g); err != nil {
		return err
	}
	if _, err := ctl.Redraw(ctx); err != nil {
		return err
	}

	if !opts.quiet {
		printInfo("frame %s · %d nodes · %d edges", StyleHighlight.Render(file.WorldFrame), g.NumNodes(), g.NumEdges())
		printRenderSummary(ctl.Status(), mem)
		if opts.output != "" && opts.output != "-" {
			printFile(opts.output)
		}
	}
	return nil
}

// printRenderSummary prints the per-channel marker counts and pass stats.
func printRenderSummary(st visualizer.Status, mem *transport.Memory) {
	s := st.LastStats
	printSuccess("Rendered %s markers in %s",
		StyleNumber.Render(fmt.Sprint(countMarkers(mem))), s.Duration.Round(time.Microsecond))

	for _, ch := range transport.Channels {
		n := 0
		if markers, ok := mem.Latest(ch); ok {
			n = len(markers)
		}
		printKeyValue(string(ch), fmt.Sprint(n))
	}

	printStats(
		stat{s.LayersRendered, "layers"},
		stat{s.Edges.Drawn, "edges"},
		stat{s.Edges.Skipped, "skipped by stride"},
		stat{s.Edges.Normalized, "normalized"},
		stat{s.Edges.Rejected, "rejected"},
		stat{s.SkippedBoxes, "bad boxes"},
	)
	if len(s.LayersSkipped) > 0 {
		printWarning("no config for layers %s", joinLayers(s.LayersSkipped))
	}
}

func countMarkers(mem *transport.Memory) int {
	n := 0
	for _, p := range mem.Published() {
		n += len(p.Markers)
	}
	return n
}

func joinLayers(ids []scenegraph.LayerID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
