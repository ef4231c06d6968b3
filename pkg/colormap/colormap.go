// Package colormap maps scalar values onto color ramps.
//
// A ramp is described by [HLS] bounds. [Ratio] normalizes a value into the
// ramp and [Interpolate] blends hue, luminance, and saturation independently
// before converting to RGB. [DistanceColor] applies the places ramp from a
// [config.VisualizerConfig] to a clearance distance.
package colormap

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// HLS bounds a color ramp. Hue is a fraction of the full turn in [0, 1];
// saturation and luminance are in [0, 1].
type HLS struct {
	MinHue, MaxHue               float64
	MinLuminance, MaxLuminance   float64
	MinSaturation, MaxSaturation float64
}

// Ratio returns (value-min)/(max-min) clamped to [0, 1].
// It returns 0 whenever the quotient is not finite, which covers min == max
// and NaN or infinite inputs.
func Ratio(min, max, value float64) float64 {
	r := (value - min) / (max - min)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return clamp01(r)
}

// Interpolate returns the color at ratio along the ramp. The ratio is
// clamped first, so out-of-range input yields an endpoint color.
func Interpolate(ramp HLS, ratio float64) scenegraph.Color {
	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = clamp01(ratio)

	h := lerp(ramp.MinHue, ramp.MaxHue, ratio)
	l := lerp(ramp.MinLuminance, ramp.MaxLuminance, ratio)
	s := lerp(ramp.MinSaturation, ramp.MaxSaturation, ratio)

	c := colorful.Hsl(math.Mod(h, 1)*360, clamp01(s), clamp01(l)).Clamped()
	r, g, b := c.RGB255()
	return scenegraph.Color{R: r, G: g, B: b}
}

// PlacesRamp extracts the places ramp from a visualizer config.
func PlacesRamp(vc config.VisualizerConfig) HLS {
	p := vc.Places
	return HLS{
		MinHue:        p.MinHue,
		MaxHue:        p.MaxHue,
		MinLuminance:  p.MinLuminance,
		MaxLuminance:  p.MaxLuminance,
		MinSaturation: p.MinSaturation,
		MaxSaturation: p.MaxSaturation,
	}
}

// DistanceColor colors a place by its clearance distance. It returns black
// when the configured distance range is empty or inverted.
func DistanceColor(vc config.VisualizerConfig, distance float64) scenegraph.Color {
	p := vc.Places
	if p.MaxDistance <= p.MinDistance {
		return scenegraph.Black
	}
	return Interpolate(PlacesRamp(vc), Ratio(p.MinDistance, p.MaxDistance, distance))
}

func lerp(lo, hi, t float64) float64 { return lo + t*(hi-lo) }

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
