package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes kind, position, and name in node labels.
	// When false, only the node label ("O12") is shown.
	Detailed bool

	// Monochrome drops the semantic fill colors.
	Monochrome bool

	// Config hides layers with visualize=false. Nil draws every layer.
	Config *config.Snapshot
}

// ToDOT converts a scene graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g *scenegraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")

	shown := make(map[scenegraph.LayerID]bool)
	for _, layer := range g.Layers() {
		lc, configured := layerConfig(opts, layer.ID)
		if configured && !lc.Visualize {
			continue
		}
		shown[layer.ID] = true
		colored := !opts.Monochrome

		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", layer.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", layer.ID.String())
		buf.WriteString("    style=\"rounded,dashed\";\n")
		buf.WriteString("    color=grey;\n")
		for _, n := range layer.Nodes() {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID.Label(), strings.Join(fmtAttrs(n, opts.Detailed, colored), ", "))
		}
		for _, e := range layer.Edges() {
			fmt.Fprintf(&buf, "    %q -> %q [dir=none];\n", e.Source.Label(), e.Target.Label())
		}
		buf.WriteString("  }\n")
	}

	var inter []string
	for _, e := range g.InterlayerEdges() {
		sn, sok := g.Node(e.Source)
		tn, tok := g.Node(e.Target)
		if !sok || !tok || !shown[sn.Layer] || !shown[tn.Layer] {
			continue
		}
		inter = append(inter, fmt.Sprintf("  %q -> %q [style=dashed, color=grey40];\n", e.Source.Label(), e.Target.Label()))
	}
	if len(inter) > 0 {
		buf.WriteString("\n")
		for _, line := range inter {
			buf.WriteString(line)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func layerConfig(opts Options, id scenegraph.LayerID) (config.LayerConfig, bool) {
	if opts.Config == nil {
		return config.LayerConfig{}, false
	}
	return opts.Config.Layer(id)
}

func fmtLabel(n *scenegraph.Node, detailed bool) string {
	if !detailed {
		return n.ID.Label()
	}

	p := n.Position()
	parts := []string{
		n.Attributes.Kind().String(),
		fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z),
	}
	if sem, err := scenegraph.SemanticOf(n.Attributes); err == nil && sem.Name != "" {
		parts = append(parts, sem.Name)
	}
	return n.ID.Label() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *scenegraph.Node, detailed, colored bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if !colored {
		return attrs
	}
	sem, err := scenegraph.SemanticOf(n.Attributes)
	if err != nil {
		return attrs
	}
	fill := colorful.Color{R: float64(sem.Color.R) / 255, G: float64(sem.Color.G) / 255, B: float64(sem.Color.B) / 255}
	attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill.Hex()))
	if _, _, l := fill.Hsl(); l < 0.5 {
		attrs = append(attrs, "fontcolor=white")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
