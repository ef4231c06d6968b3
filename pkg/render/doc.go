// Package render builds render primitives from scene graph layers.
//
// # Overview
//
// Each builder is a pure function of a layer (or the whole graph), its
// [config.LayerConfig], and the shared [config.VisualizerConfig]. Builders
// never mutate their inputs and never panic; failures are either recovered
// locally or returned for the caller to log.
//
// # Builders
//
//   - [Centroids]: one point-list marker per layer, one point per node
//   - [Label]: one text marker per node
//   - [BoundingBox]: one cube per object node
//   - [LayerEdges]: one line-list marker per layer for intra-layer edges
//   - [GraphEdges]: one line-list marker per source layer for inter-layer edges
//   - [MeshEdges]: lines from object centroids to their mesh samples
//
// # Visibility
//
// A builder whose layer is configured with visualize=false returns a delete
// marker for the same (namespace, id) instead of geometry, so the renderer
// retracts whatever it drew last.
//
// # Vertical Offset
//
// Layers are stacked by [ZOffset]: z_offset_scale * layer_z_step, or 0 when
// collapse_layers is set.
//
// # Colors
//
// Node colors come from the semantic attributes. When a node has no color
// the centroid batch falls back to [scenegraph.Red] for that node and every
// later node in the batch.
package render
