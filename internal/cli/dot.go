package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dsgviz/pkg/render/nodelink"
	"github.com/matzehuels/dsgviz/pkg/source"
)

// dotOpts holds the flags of the dot command.
type dotOpts struct {
	configPath string
	output     string
	detailed   bool
	noConfig   bool
	mono       bool
}

// dotCommand creates the dot command for structure dumps.
func (c *CLI) dotCommand() *cobra.Command {
	var opts dotOpts

	cmd := &cobra.Command{
		Use:   "dot <graph>",
		Short: "Dump the graph structure as Graphviz DOT or SVG",
		Long: `Dump the layered graph as a node-link diagram, one cluster per layer.

The output format follows the --output extension: .svg renders through
Graphviz, anything else (or stdout) is DOT source.`,
		Example: `  dsgviz dot scene.json > scene.dot
  dsgviz dot scene.json --detailed -o scene.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.svg or .dot); stdout when empty")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include kind, position, and name in node labels")
	cmd.Flags().BoolVar(&opts.noConfig, "all", false, "draw every layer, ignoring visualize")
	cmd.Flags().BoolVar(&opts.mono, "mono", false, "drop semantic fill colors")

	return cmd
}

func (c *CLI) runDot(ctx context.Context, stdout io.Writer, ref string, opts dotOpts) error {
	g, err := source.Load(ctx, ref)
	if err != nil {
		return err
	}

	nopts := nodelink.Options{Detailed: opts.detailed, Monochrome: opts.mono}
	if !opts.noConfig {
		file, err := c.loadConfig(opts.configPath)
		if err != nil {
			return err
		}
		nopts.Config = &file.Snapshot
	}
	dot := nodelink.ToDOT(g, nopts)

	if opts.output == "" {
		_, err := fmt.Fprint(stdout, dot)
		return err
	}

	data := []byte(dot)
	if strings.EqualFold(filepath.Ext(opts.output), ".svg") {
		prog := newProgress(c.Logger)
		if data, err = nodelink.RenderSVG(dot); err != nil {
			return err
		}
		prog.done("rendered svg", "bytes", len(data))
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Wrote %s", opts.output)
	printFile(opts.output)
	return nil
}
