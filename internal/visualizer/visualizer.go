// Package visualizer draws the three band waveforms as rings around a
// shared centre, one frame per scheduler callback.
package visualizer

import "image/color"

// Point is a position on the logical canvas.
type Point struct {
	X, Y float64
}

// Surface is a 2D drawing target.
type Surface interface {
	// Size returns the logical canvas size.
	Size() (w, h float64)
	Clear()
	// Fill composites c over the whole surface with the given opacity.
	Fill(c color.RGBA, alpha float64)
	StrokeClosedPath(points []Point, c color.RGBA, width float64)
}

// FrameHandle identifies one pending frame callback. Zero is never a valid
// handle.
type FrameHandle uint64

// Scheduler runs callbacks on the display's frame cadence.
type Scheduler interface {
	// RequestFrame schedules fn to run once, on the next frame.
	RequestFrame(fn func()) FrameHandle
	// CancelFrame drops a pending callback. Unknown handles are ignored.
	CancelFrame(h FrameHandle)
}

// TimeDomainReader is a source of byte waveform windows.
type TimeDomainReader interface {
	Resolution() int
	ReadTimeDomain(dst []byte) int
}

const (
	// CanvasSize is the logical width and height of the drawing.
	CanvasSize = 600.0
	// Stride is the sample step between path points.
	Stride = 4
	// LineWidth is the stroke width of every band path.
	LineWidth = 2.0
	// BackgroundAlpha is the opacity of the per-frame background fill.
	BackgroundAlpha = 0.7
)

// Background is the canvas fill colour.
var Background = color.RGBA{R: 11, G: 15, B: 25, A: 255}
