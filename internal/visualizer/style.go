package visualizer

import (
	"image/color"
	"math"

	"github.com/olivier-w/ringscope/internal/audio"
)

// BandStyle is how one band is drawn.
type BandStyle struct {
	Band       audio.Band
	Color      color.RGBA
	BaseRadius float64
	// DisplayStrength is the offset, in pixels, of a full-scale sample
	// when no per-frame strength is given.
	DisplayStrength float64
}

// DefaultDisplayStrength is the fallback offset of every band.
const DefaultDisplayStrength = 60

// DrawStrengths are the per-band offsets used by the render loop.
var DrawStrengths = [audio.NumBands]float64{
	audio.Bass:   70,
	audio.Mid:    55,
	audio.Treble: 45,
}

// DefaultStyles returns the bass, mid and treble styles.
func DefaultStyles() [audio.NumBands]BandStyle {
	return [audio.NumBands]BandStyle{
		{Band: audio.Bass, Color: hex(0x4dd0ff), BaseRadius: 130, DisplayStrength: DefaultDisplayStrength},
		{Band: audio.Mid, Color: hex(0x9b7bff), BaseRadius: 170, DisplayStrength: DefaultDisplayStrength},
		{Band: audio.Treble, Color: hex(0xff8bd1), BaseRadius: 210, DisplayStrength: DefaultDisplayStrength},
	}
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Amplitude maps a byte sample to [-1, 1), 128 being silence.
func Amplitude(v byte) float64 {
	return (float64(v) - 128) / 128
}

// PolarPoints appends to dst one point for every stride-th sample, placed
// at angle i/len(samples)·2π and radius plus amplitude·strength from
// (cx, cy).
func PolarPoints(dst []Point, samples []byte, cx, cy, radius, strength float64, stride int) []Point {
	if stride < 1 {
		stride = 1
	}
	n := float64(len(samples))
	for i := 0; i < len(samples); i += stride {
		angle := float64(i) / n * 2 * math.Pi
		r := radius + Amplitude(samples[i])*strength
		dst = append(dst, Point{
			X: cx + math.Cos(angle)*r,
			Y: cy + math.Sin(angle)*r,
		})
	}
	return dst
}

// DrawBand strokes one band's waveform ring onto s. A non-positive
// strength falls back to the style's DisplayStrength.
func DrawBand(s Surface, samples []byte, style BandStyle, strength float64, scratch []Point) []Point {
	if strength <= 0 {
		strength = style.DisplayStrength
	}
	w, h := s.Size()
	pts := PolarPoints(scratch[:0], samples, w/2, h/2, style.BaseRadius, strength, Stride)
	s.StrokeClosedPath(pts, style.Color, LineWidth)
	return pts
}
