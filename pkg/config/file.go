package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// File is the decoded content of a configuration file.
type File struct {
	WorldFrame string
	LoopPeriod time.Duration
	Snapshot
}

// DefaultFile returns the configuration used when no file is given.
func DefaultFile() File {
	return File{
		WorldFrame: DefaultWorldFrame,
		LoopPeriod: DefaultLoopPeriod,
		Snapshot:   Default(),
	}
}

// Load reads and validates a configuration file. The format is chosen by
// extension: .toml, .yaml, or .yml. Values absent from the file keep their
// defaults from [DefaultFile].
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, dsgerrors.Wrap(dsgerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		f, err = DecodeTOML(data)
	case ".yaml", ".yml":
		f, err = DecodeYAML(bytes.NewReader(data))
	default:
		return File{}, dsgerrors.New(dsgerrors.ErrCodeUnsupported, "config format %q (want .toml, .yaml, or .yml)", ext)
	}
	if err != nil {
		return File{}, dsgerrors.Wrap(dsgerrors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks the loop period and every config in the file.
func (f File) Validate() error {
	if f.LoopPeriod <= 0 {
		return dsgerrors.New(dsgerrors.ErrCodeInvalidConfig, "loop_period must be positive, got %s", f.LoopPeriod)
	}
	return f.Snapshot.Validate()
}

// =============================================================================
// Decoders
// =============================================================================

// DecodeTOML decodes a TOML configuration document over the defaults.
// Unknown keys are an error.
func DecodeTOML(data []byte) (File, error) {
	f := DefaultFile()
	raw := struct {
		WorldFrame string                    `toml:"world_frame"`
		LoopPeriod time.Duration             `toml:"loop_period"`
		Visualizer VisualizerConfig          `toml:"visualizer"`
		Layers     map[string]toml.Primitive `toml:"layers"`
	}{
		WorldFrame: f.WorldFrame,
		LoopPeriod: f.LoopPeriod,
		Visualizer: f.Visualizer,
	}

	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return File{}, err
	}

	f.WorldFrame, f.LoopPeriod, f.Visualizer = raw.WorldFrame, raw.LoopPeriod, raw.Visualizer
	for key, prim := range raw.Layers {
		id, lc, err := layerBase(f.Snapshot, key)
		if err != nil {
			return File{}, err
		}
		if err := md.PrimitiveDecode(prim, &lc); err != nil {
			return File{}, fmt.Errorf("layer %s: %w", key, err)
		}
		f.Layers[id] = lc
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("unknown keys: %v", undecoded)
	}
	return f, nil
}

// DecodeYAML decodes a YAML configuration document over the defaults.
// Unknown keys are an error.
func DecodeYAML(r io.Reader) (File, error) {
	f := DefaultFile()
	raw := struct {
		WorldFrame string               `yaml:"world_frame"`
		LoopPeriod time.Duration        `yaml:"loop_period"`
		Visualizer VisualizerConfig     `yaml:"visualizer"`
		Layers     map[string]yaml.Node `yaml:"layers"`
	}{
		WorldFrame: f.WorldFrame,
		LoopPeriod: f.LoopPeriod,
		Visualizer: f.Visualizer,
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return File{}, err
	}

	f.WorldFrame, f.LoopPeriod, f.Visualizer = raw.WorldFrame, raw.LoopPeriod, raw.Visualizer
	for key, node := range raw.Layers {
		id, lc, err := layerBase(f.Snapshot, key)
		if err != nil {
			return File{}, err
		}
		if err := node.Decode(&lc); err != nil {
			return File{}, fmt.Errorf("layer %s: %w", key, err)
		}
		f.Layers[id] = lc
	}
	return f, nil
}

// layerBase resolves a layer table key and returns the config that the
// table's values are decoded over.
func layerBase(s Snapshot, key string) (scenegraph.LayerID, LayerConfig, error) {
	id, err := scenegraph.ParseLayerID(key)
	if err != nil {
		return 0, LayerConfig{}, err
	}
	if lc, ok := s.Layers[id]; ok {
		return id, lc, nil
	}
	return id, DefaultLayer(id), nil
}

// =============================================================================
// Encoders
// =============================================================================

// EncodeTOML writes a snapshot as a TOML document that [DecodeTOML] accepts.
func EncodeTOML(w io.Writer, f File) error {
	layers := make(map[string]LayerConfig, len(f.Layers))
	for id, lc := range f.Layers {
		layers[id.String()] = lc
	}
	doc := struct {
		WorldFrame string                 `toml:"world_frame"`
		LoopPeriod string                 `toml:"loop_period"`
		Visualizer VisualizerConfig       `toml:"visualizer"`
		Layers     map[string]LayerConfig `toml:"layers"`
	}{f.WorldFrame, f.LoopPeriod.String(), f.Visualizer, layers}
	return toml.NewEncoder(w).Encode(doc)
}

// EncodeYAML writes a snapshot as a YAML document that [DecodeYAML] accepts.
func EncodeYAML(w io.Writer, f File) error {
	layers := make(map[string]LayerConfig, len(f.Layers))
	for id, lc := range f.Layers {
		layers[id.String()] = lc
	}
	doc := struct {
		WorldFrame string                 `yaml:"world_frame"`
		LoopPeriod string                 `yaml:"loop_period"`
		Visualizer VisualizerConfig       `yaml:"visualizer"`
		Layers     map[string]LayerConfig `yaml:"layers"`
	}{f.WorldFrame, f.LoopPeriod.String(), f.Visualizer, layers}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
