package config

import (
	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
)

// ValidateLayerConfig rejects alphas outside [0, 1], negative or non-finite
// scales, and negative insertion skips.
func ValidateLayerConfig(lc LayerConfig) error {
	checks := []error{
		dsgerrors.ValidateFinite("z_offset_scale", lc.ZOffsetScale),
		dsgerrors.ValidateNonNegative("marker_scale", lc.MarkerScale),
		dsgerrors.ValidateUnitInterval("marker_alpha", lc.MarkerAlpha),
		dsgerrors.ValidateFinite("label_height", lc.LabelHeight),
		dsgerrors.ValidateNonNegative("label_scale", lc.LabelScale),
		dsgerrors.ValidateUnitInterval("bounding_box_alpha", lc.BoundingBoxAlpha),
		dsgerrors.ValidateNonNegative("intralayer_edge_scale", lc.IntralayerEdgeScale),
		dsgerrors.ValidateUnitInterval("intralayer_edge_alpha", lc.IntralayerEdgeAlpha),
		dsgerrors.ValidateNonNegative("interlayer_edge_scale", lc.InterlayerEdgeScale),
		dsgerrors.ValidateUnitInterval("interlayer_edge_alpha", lc.InterlayerEdgeAlpha),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if lc.IntralayerEdgeInsertionSkip < 0 {
		return dsgerrors.New(dsgerrors.ErrCodeInvalidConfig,
			"intralayer_edge_insertion_skip must be >= 0, got %d", lc.IntralayerEdgeInsertionSkip)
	}
	if lc.InterlayerEdgeInsertionSkip < 0 {
		return dsgerrors.New(dsgerrors.ErrCodeInvalidConfig,
			"interlayer_edge_insertion_skip must be >= 0, got %d", lc.InterlayerEdgeInsertionSkip)
	}
	return nil
}

// ValidateVisualizerConfig rejects non-finite offsets, ramp components
// outside [0, 1], and unknown edge policies.
func ValidateVisualizerConfig(vc VisualizerConfig) error {
	p := vc.Places
	checks := []error{
		dsgerrors.ValidateFinite("layer_z_step", vc.LayerZStep),
		dsgerrors.ValidateFinite("mesh_edge_break_ratio", vc.MeshEdgeBreakRatio),
		dsgerrors.ValidateFinite("mesh_layer_offset", vc.MeshLayerOffset),
		dsgerrors.ValidateFinite("places.min_distance", p.MinDistance),
		dsgerrors.ValidateFinite("places.max_distance", p.MaxDistance),
		dsgerrors.ValidateUnitInterval("places.min_hue", p.MinHue),
		dsgerrors.ValidateUnitInterval("places.max_hue", p.MaxHue),
		dsgerrors.ValidateUnitInterval("places.min_saturation", p.MinSaturation),
		dsgerrors.ValidateUnitInterval("places.max_saturation", p.MaxSaturation),
		dsgerrors.ValidateUnitInterval("places.min_luminance", p.MinLuminance),
		dsgerrors.ValidateUnitInterval("places.max_luminance", p.MaxLuminance),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	switch vc.InterlayerEdgePolicy.Resolved() {
	case PolicyNormalize, PolicyReject:
		return nil
	default:
		return dsgerrors.New(dsgerrors.ErrCodeInvalidConfig,
			"interlayer_edge_policy must be %q or %q, got %q", PolicyNormalize, PolicyReject, vc.InterlayerEdgePolicy)
	}
}
