// Package config holds the render configuration of dsgviz.
//
// Configuration has two levels: one [VisualizerConfig] with settings shared
// by every layer, and one [LayerConfig] per layer id. A redraw pass reads
// both through a [Snapshot], an immutable value captured once at the start
// of the pass.
//
// # Store
//
// [Store] is the configuration channel. Writers (the file watcher, the HTTP
// API) replace whole structs with [Store.SetVisualizer], [Store.SetLayer], or
// [Store.Replace]. Each write validates its input, publishes a new snapshot
// (copy-on-write), and notifies the listeners registered with
// [Store.OnChange]. Readers never observe a partially applied update.
//
// # Files
//
// [Load] reads TOML or YAML by file extension:
//
//	world_frame = "world"
//	loop_period = "100ms"
//
//	[visualizer]
//	layer_z_step = 5.0
//	collapse_layers = false
//
//	[layers.objects]
//	use_bounding_box = true
//
//	[layers.3]
//	use_sphere_marker = true
//
// Layer tables are keyed by layer number or well-known name. Keys missing
// from a layer table keep that layer's defaults from [DefaultLayer].
//
// [Watch] reloads a file on change with a short debounce, validating before
// the new values are swapped in. An invalid file keeps the previous
// configuration.
package config
