// Package pkg provides the libraries behind dsgviz, a visualizer that turns a
// layered 3D scene graph into batches of render markers.
//
// # Overview
//
// A scene graph is a stack of layers (objects, places, rooms, buildings)
// whose nodes carry positions and semantic attributes. Edges join nodes in
// the same layer or in adjacent layers. Each redraw pass converts the whole
// graph into five marker batches and publishes them to subscribers:
//
//	scenegraph.Graph + config.Snapshot
//	         ↓
//	pipeline.Build      (per-layer centroids, labels, boxes, mesh edges, graph edges)
//	         ↓
//	visualizer.Controller (dirty-flag redraw loop)
//	         ↓
//	transport.Transport (nng, redis, JSON lines, last-sent dedup)
//
// # Packages
//
//   - [scenegraph]: graph model, node attributes, JSON/BSON documents
//   - [config]: layer and visualizer settings, copy-on-write store, file watcher
//   - [colormap]: HLS distance ramp
//   - [marker]: render primitive wire types
//   - [render]: primitive builders
//   - [pipeline]: one pass over all layers
//   - [visualizer]: redraw controller
//   - [transport]: publishing, envelopes, dedup
//   - [cache]: key/value stores for the dedup stage
//   - [source]: graph references (files, stdin, MongoDB)
//   - [server]: HTTP control API
//   - [metrics], [observability]: prometheus registry behind no-op hooks
//   - [errors]: coded errors and validation helpers
package pkg
