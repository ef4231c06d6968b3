package config

import (
	"testing"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if err := DefaultFile().Validate(); err != nil {
		t.Fatalf("DefaultFile().Validate() = %v", err)
	}
}

func TestDefaultLayerStacking(t *testing.T) {
	prev := -1.0
	for _, id := range DefaultLayerIDs {
		lc := DefaultLayer(id)
		if lc.ZOffsetScale <= prev {
			t.Errorf("layer %v z_offset_scale = %v, want > %v", id, lc.ZOffsetScale, prev)
		}
		prev = lc.ZOffsetScale
	}

	if got := DefaultLayer(scenegraph.LayerID(42)).ZOffsetScale; got != 0 {
		t.Errorf("unknown layer z_offset_scale = %v, want 0", got)
	}
}

func TestSnapshotClone(t *testing.T) {
	s := Default()
	c := s.Clone()
	c.Layers[scenegraph.LayerObjects] = LayerConfig{}

	if s.Layers[scenegraph.LayerObjects] == (LayerConfig{}) {
		t.Error("Clone() shares the layers map")
	}
}

func TestEdgePolicyResolved(t *testing.T) {
	if got := EdgePolicy("").Resolved(); got != PolicyNormalize {
		t.Errorf("empty policy resolves to %q, want %q", got, PolicyNormalize)
	}
	if got := PolicyReject.Resolved(); got != PolicyReject {
		t.Errorf("reject resolves to %q", got)
	}
}

func TestValidateLayerConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LayerConfig)
	}{
		{"marker alpha above one", func(lc *LayerConfig) { lc.MarkerAlpha = 1.5 }},
		{"negative box alpha", func(lc *LayerConfig) { lc.BoundingBoxAlpha = -0.1 }},
		{"negative marker scale", func(lc *LayerConfig) { lc.MarkerScale = -1 }},
		{"negative edge scale", func(lc *LayerConfig) { lc.InterlayerEdgeScale = -0.01 }},
		{"negative intra skip", func(lc *LayerConfig) { lc.IntralayerEdgeInsertionSkip = -1 }},
		{"negative inter skip", func(lc *LayerConfig) { lc.InterlayerEdgeInsertionSkip = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := DefaultLayer(scenegraph.LayerObjects)
			tt.mutate(&lc)
			err := ValidateLayerConfig(lc)
			if !dsgerrors.Is(err, dsgerrors.ErrCodeInvalidConfig) {
				t.Errorf("ValidateLayerConfig() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestValidateVisualizerConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*VisualizerConfig)
		wantErr bool
	}{
		{"defaults", func(*VisualizerConfig) {}, false},
		{"empty policy", func(vc *VisualizerConfig) { vc.InterlayerEdgePolicy = "" }, false},
		{"reject policy", func(vc *VisualizerConfig) { vc.InterlayerEdgePolicy = PolicyReject }, false},
		{"unknown policy", func(vc *VisualizerConfig) { vc.InterlayerEdgePolicy = "guess" }, true},
		{"hue above one", func(vc *VisualizerConfig) { vc.Places.MaxHue = 1.2 }, true},
		{"negative luminance", func(vc *VisualizerConfig) { vc.Places.MinLuminance = -0.5 }, true},
		{"saturation above one", func(vc *VisualizerConfig) { vc.Places.MinSaturation = 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := DefaultVisualizer()
			tt.mutate(&vc)
			err := ValidateVisualizerConfig(vc)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVisualizerConfig() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
