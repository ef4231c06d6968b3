package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

const sampleTOML = `
world_frame = "map"
loop_period = "250ms"

[visualizer]
layer_z_step = 3.0
collapse_layers = true
interlayer_edge_policy = "reject"

[visualizer.places]
max_distance = 4.0

[layers.objects]
use_bounding_box = false

[layers.7]
visualize = false
`

const sampleYAML = `
world_frame: map
loop_period: 250ms
visualizer:
  layer_z_step: 3.0
  collapse_layers: true
  interlayer_edge_policy: reject
  places:
    max_distance: 4.0
layers:
  objects:
    use_bounding_box: false
  "7":
    visualize: false
`

func checkSample(t *testing.T, f File) {
	t.Helper()
	if f.WorldFrame != "map" {
		t.Errorf("WorldFrame = %q, want map", f.WorldFrame)
	}
	if f.LoopPeriod != 250*time.Millisecond {
		t.Errorf("LoopPeriod = %v, want 250ms", f.LoopPeriod)
	}
	if f.Visualizer.LayerZStep != 3 || !f.Visualizer.CollapseLayers {
		t.Errorf("Visualizer = %+v", f.Visualizer)
	}
	if f.Visualizer.InterlayerEdgePolicy != PolicyReject {
		t.Errorf("policy = %q, want reject", f.Visualizer.InterlayerEdgePolicy)
	}
	if f.Visualizer.Places.MaxDistance != 4 || f.Visualizer.Places.MaxHue != 0.67 {
		t.Errorf("Places = %+v, want max_distance 4 and default hue", f.Visualizer.Places)
	}

	objects := f.Layers[scenegraph.LayerObjects]
	if objects.UseBoundingBox {
		t.Error("objects use_bounding_box should be overridden to false")
	}
	if !objects.UseLabel || objects.ZOffsetScale != 1 {
		t.Errorf("objects lost defaults: %+v", objects)
	}

	custom, ok := f.Layers[scenegraph.LayerID(7)]
	if !ok || custom.Visualize {
		t.Errorf("layer 7 = %+v, %v, want registered with visualize=false", custom, ok)
	}
	if custom.MarkerAlpha != 1 {
		t.Errorf("layer 7 marker_alpha = %v, want default 1", custom.MarkerAlpha)
	}
	if _, ok := f.Layers[scenegraph.LayerRooms]; !ok {
		t.Error("default rooms layer missing")
	}
}

func TestDecodeTOML(t *testing.T) {
	f, err := DecodeTOML([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("DecodeTOML: %v", err)
	}
	checkSample(t, f)
}

func TestDecodeYAML(t *testing.T) {
	f, err := DecodeYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	checkSample(t, f)
}

func TestDecodeUnknownKeys(t *testing.T) {
	if _, err := DecodeTOML([]byte("[visualizer]\nlayer_zstep = 1.0\n")); err == nil {
		t.Error("DecodeTOML with unknown key = nil error")
	}
	if _, err := DecodeYAML(strings.NewReader("visualizer:\n  layer_zstep: 1.0\n")); err == nil {
		t.Error("DecodeYAML with unknown key = nil error")
	}
	if _, err := DecodeTOML([]byte("[layers.attic]\nvisualize = true\n")); err == nil {
		t.Error("DecodeTOML with unknown layer name = nil error")
	}
}

func TestDecodeEmptyYAML(t *testing.T) {
	f, err := DecodeYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("DecodeYAML(empty): %v", err)
	}
	if f.LoopPeriod != DefaultLoopPeriod || len(f.Layers) != len(DefaultLayerIDs) {
		t.Errorf("empty document should yield defaults, got %+v", f)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("toml", func(t *testing.T) {
		f, err := Load(write("viz.toml", sampleTOML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		checkSample(t, f)
	})

	t.Run("yml", func(t *testing.T) {
		f, err := Load(write("viz.yml", sampleYAML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		checkSample(t, f)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.toml"))
		if !dsgerrors.Is(err, dsgerrors.ErrCodeFileNotFound) {
			t.Errorf("Load(missing) = %v, want FILE_NOT_FOUND", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(write("viz.ini", "x=1"))
		if !dsgerrors.Is(err, dsgerrors.ErrCodeUnsupported) {
			t.Errorf("Load(.ini) = %v, want UNSUPPORTED", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(write("bad.toml", "[layers.objects]\nmarker_alpha = 2.0\n"))
		if !dsgerrors.Is(err, dsgerrors.ErrCodeInvalidConfig) {
			t.Errorf("Load(bad alpha) = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("non-positive period", func(t *testing.T) {
		_, err := Load(write("period.toml", "loop_period = \"0s\"\n"))
		if !dsgerrors.Is(err, dsgerrors.ErrCodeInvalidConfig) {
			t.Errorf("Load(0s period) = %v, want INVALID_CONFIG", err)
		}
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	f, err := DecodeTOML([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("DecodeTOML: %v", err)
	}

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := EncodeTOML(&buf, f); err != nil {
			t.Fatalf("EncodeTOML: %v", err)
		}
		back, err := DecodeTOML(buf.Bytes())
		if err != nil {
			t.Fatalf("DecodeTOML(encoded): %v\n%s", err, buf.String())
		}
		checkSample(t, back)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := EncodeYAML(&buf, f); err != nil {
			t.Fatalf("EncodeYAML: %v", err)
		}
		back, err := DecodeYAML(&buf)
		if err != nil {
			t.Fatalf("DecodeYAML(encoded): %v", err)
		}
		checkSample(t, back)
	})
}
