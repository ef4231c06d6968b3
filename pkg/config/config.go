package config

import (
	"maps"
	"time"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultWorldFrame is the coordinate frame stamped on every marker.
	DefaultWorldFrame = "world"

	// DefaultLoopPeriod is the redraw tick period.
	DefaultLoopPeriod = 100 * time.Millisecond

	// DefaultLayerZStep is the vertical distance per unit of z_offset_scale.
	DefaultLayerZStep = 5.0

	// DefaultMeshEdgeBreakRatio places the mesh edge break point halfway
	// between a node and the mesh.
	DefaultMeshEdgeBreakRatio = 0.5
)

// EdgePolicy selects how inter-layer edges whose source is in a lower layer
// than their target are handled.
type EdgePolicy string

const (
	// PolicyNormalize swaps the endpoints so the source is the parent.
	PolicyNormalize EdgePolicy = "normalize"
	// PolicyReject drops the edge.
	PolicyReject EdgePolicy = "reject"
)

// Resolved returns the policy, with the empty value meaning [PolicyNormalize].
func (p EdgePolicy) Resolved() EdgePolicy {
	if p == "" {
		return PolicyNormalize
	}
	return p
}

// =============================================================================
// Layer and Visualizer Config
// =============================================================================

// LayerConfig controls how one layer is drawn.
type LayerConfig struct {
	ZOffsetScale float64 `toml:"z_offset_scale" yaml:"z_offset_scale" json:"z_offset_scale"`
	Visualize    bool    `toml:"visualize" yaml:"visualize" json:"visualize"`

	MarkerScale     float64 `toml:"marker_scale" yaml:"marker_scale" json:"marker_scale"`
	MarkerAlpha     float64 `toml:"marker_alpha" yaml:"marker_alpha" json:"marker_alpha"`
	UseSphereMarker bool    `toml:"use_sphere_marker" yaml:"use_sphere_marker" json:"use_sphere_marker"`

	UseLabel    bool    `toml:"use_label" yaml:"use_label" json:"use_label"`
	LabelHeight float64 `toml:"label_height" yaml:"label_height" json:"label_height"`
	LabelScale  float64 `toml:"label_scale" yaml:"label_scale" json:"label_scale"`

	UseBoundingBox   bool    `toml:"use_bounding_box" yaml:"use_bounding_box" json:"use_bounding_box"`
	BoundingBoxAlpha float64 `toml:"bounding_box_alpha" yaml:"bounding_box_alpha" json:"bounding_box_alpha"`

	IntralayerEdgeScale         float64 `toml:"intralayer_edge_scale" yaml:"intralayer_edge_scale" json:"intralayer_edge_scale"`
	IntralayerEdgeAlpha         float64 `toml:"intralayer_edge_alpha" yaml:"intralayer_edge_alpha" json:"intralayer_edge_alpha"`
	IntralayerEdgeInsertionSkip int     `toml:"intralayer_edge_insertion_skip" yaml:"intralayer_edge_insertion_skip" json:"intralayer_edge_insertion_skip"`

	InterlayerEdgeScale         float64 `toml:"interlayer_edge_scale" yaml:"interlayer_edge_scale" json:"interlayer_edge_scale"`
	InterlayerEdgeAlpha         float64 `toml:"interlayer_edge_alpha" yaml:"interlayer_edge_alpha" json:"interlayer_edge_alpha"`
	InterlayerEdgeUseColor      bool    `toml:"interlayer_edge_use_color" yaml:"interlayer_edge_use_color" json:"interlayer_edge_use_color"`
	UseEdgeSource               bool    `toml:"use_edge_source" yaml:"use_edge_source" json:"use_edge_source"`
	InterlayerEdgeInsertionSkip int     `toml:"interlayer_edge_insertion_skip" yaml:"interlayer_edge_insertion_skip" json:"interlayer_edge_insertion_skip"`
}

// PlacesColoring is the distance color ramp for the places layer.
// Hue is a fraction of the full turn.
type PlacesColoring struct {
	MinDistance   float64 `toml:"min_distance" yaml:"min_distance" json:"min_distance"`
	MaxDistance   float64 `toml:"max_distance" yaml:"max_distance" json:"max_distance"`
	MinHue        float64 `toml:"min_hue" yaml:"min_hue" json:"min_hue"`
	MaxHue        float64 `toml:"max_hue" yaml:"max_hue" json:"max_hue"`
	MinSaturation float64 `toml:"min_saturation" yaml:"min_saturation" json:"min_saturation"`
	MaxSaturation float64 `toml:"max_saturation" yaml:"max_saturation" json:"max_saturation"`
	MinLuminance  float64 `toml:"min_luminance" yaml:"min_luminance" json:"min_luminance"`
	MaxLuminance  float64 `toml:"max_luminance" yaml:"max_luminance" json:"max_luminance"`
}

// VisualizerConfig holds settings shared by every layer.
type VisualizerConfig struct {
	LayerZStep            float64        `toml:"layer_z_step" yaml:"layer_z_step" json:"layer_z_step"`
	CollapseLayers        bool           `toml:"collapse_layers" yaml:"collapse_layers" json:"collapse_layers"`
	MeshEdgeBreakRatio    float64        `toml:"mesh_edge_break_ratio" yaml:"mesh_edge_break_ratio" json:"mesh_edge_break_ratio"`
	MeshLayerOffset       float64        `toml:"mesh_layer_offset" yaml:"mesh_layer_offset" json:"mesh_layer_offset"`
	ColorPlacesByDistance bool           `toml:"color_places_by_distance" yaml:"color_places_by_distance" json:"color_places_by_distance"`
	Places                PlacesColoring `toml:"places" yaml:"places" json:"places"`

	// ObjectsLayer is the layer whose nodes get mesh edges.
	ObjectsLayer scenegraph.LayerID `toml:"objects_layer" yaml:"objects_layer" json:"objects_layer"`
	// PlacesLayer is the layer colored by distance.
	PlacesLayer scenegraph.LayerID `toml:"places_layer" yaml:"places_layer" json:"places_layer"`

	InterlayerEdgePolicy EdgePolicy `toml:"interlayer_edge_policy" yaml:"interlayer_edge_policy" json:"interlayer_edge_policy"`
}

// DefaultVisualizer returns the default shared settings.
func DefaultVisualizer() VisualizerConfig {
	return VisualizerConfig{
		LayerZStep:         DefaultLayerZStep,
		MeshEdgeBreakRatio: DefaultMeshEdgeBreakRatio,
		Places: PlacesColoring{
			MaxDistance:   2.5,
			MinHue:        0,
			MaxHue:        0.67,
			MinSaturation: 0.8,
			MaxSaturation: 0.8,
			MinLuminance:  0.5,
			MaxLuminance:  0.5,
		},
		ObjectsLayer:         scenegraph.LayerObjects,
		PlacesLayer:          scenegraph.LayerPlaces,
		InterlayerEdgePolicy: PolicyNormalize,
	}
}

// DefaultLayer returns the default config for a layer. Well-known layers
// are stacked one z step apart with the objects layer lowest; other ids get
// a visible layer at z offset 0.
func DefaultLayer(id scenegraph.LayerID) LayerConfig {
	lc := LayerConfig{
		Visualize:              true,
		MarkerScale:            0.1,
		MarkerAlpha:            1,
		LabelHeight:            1,
		LabelScale:             0.5,
		BoundingBoxAlpha:       0.5,
		IntralayerEdgeScale:    0.03,
		IntralayerEdgeAlpha:    1,
		InterlayerEdgeScale:    0.03,
		InterlayerEdgeAlpha:    0.4,
		InterlayerEdgeUseColor: true,
		UseEdgeSource:          true,
	}

	switch id {
	case scenegraph.LayerObjects:
		lc.ZOffsetScale = 1
		lc.MarkerScale = 0.25
		lc.UseLabel = true
		lc.UseBoundingBox = true
	case scenegraph.LayerPlaces:
		lc.ZOffsetScale = 2
		lc.MarkerScale = 0.15
		lc.UseSphereMarker = true
		lc.IntralayerEdgeScale = 0.02
		lc.InterlayerEdgeInsertionSkip = 2
	case scenegraph.LayerRooms:
		lc.ZOffsetScale = 3
		lc.MarkerScale = 0.4
		lc.UseLabel = true
	case scenegraph.LayerBuildings:
		lc.ZOffsetScale = 4
		lc.MarkerScale = 0.5
		lc.UseLabel = true
	}
	return lc
}

// DefaultLayerIDs lists the layers configured by [Default].
var DefaultLayerIDs = []scenegraph.LayerID{
	scenegraph.LayerObjects,
	scenegraph.LayerPlaces,
	scenegraph.LayerRooms,
	scenegraph.LayerBuildings,
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is one consistent view of the configuration.
// A Snapshot obtained from a [Store] shares its Layers map with other
// readers and must not be modified; use [Snapshot.Clone] to derive one.
type Snapshot struct {
	Visualizer VisualizerConfig                   `json:"visualizer"`
	Layers     map[scenegraph.LayerID]LayerConfig `json:"layers"`
}

// Layer returns the config registered for a layer.
func (s Snapshot) Layer(id scenegraph.LayerID) (LayerConfig, bool) {
	lc, ok := s.Layers[id]
	return lc, ok
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Visualizer: s.Visualizer, Layers: maps.Clone(s.Layers)}
}

// Validate checks every config in the snapshot.
func (s Snapshot) Validate() error {
	if err := ValidateVisualizerConfig(s.Visualizer); err != nil {
		return err
	}
	for id, lc := range s.Layers {
		if err := ValidateLayerConfig(lc); err != nil {
			return dsgerrors.Wrap(dsgerrors.ErrCodeInvalidConfig, err, "layer %v", id)
		}
	}
	return nil
}

// Default returns the default snapshot covering [DefaultLayerIDs].
func Default() Snapshot {
	s := Snapshot{
		Visualizer: DefaultVisualizer(),
		Layers:     make(map[scenegraph.LayerID]LayerConfig, len(DefaultLayerIDs)),
	}
	for _, id := range DefaultLayerIDs {
		s.Layers[id] = DefaultLayer(id)
	}
	return s
}
