// Package nodelink renders scene graphs as layered node-link diagrams.
//
// # Overview
//
// The renderers in pkg/render produce 3D primitives for a live viewer. This
// package produces an offline structure dump instead: a Graphviz diagram
// with one cluster per layer, intra-layer edges drawn solid, and inter-layer
// edges drawn dashed. Layers stack bottom to top in id order, matching the
// vertical offsets of the 3D view.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include kind, position, and name
//   - Config: when set, layers with visualize=false are omitted and fill
//     colors follow the layer's use_color setting
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering and [github.com/lucasb-eyer/go-colorful] for fill colors.
package nodelink
