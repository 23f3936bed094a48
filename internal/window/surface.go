package window

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

// fillRect is swapped in tests, which run without a graphics driver.
var fillRect = vector.FillRect

// Surface is a visualizer.Surface backed by an offscreen image that keeps
// its content between frames.
type Surface struct {
	img *ebiten.Image
}

// NewSurface allocates a CanvasSize square image.
func NewSurface() *Surface {
	return &Surface{img: ebiten.NewImage(int(visualizer.CanvasSize), int(visualizer.CanvasSize))}
}

// Image returns the backing image.
func (s *Surface) Image() *ebiten.Image { return s.img }

func (s *Surface) Size() (w, h float64) {
	return visualizer.CanvasSize, visualizer.CanvasSize
}

func (s *Surface) Clear() { s.img.Clear() }

func (s *Surface) Fill(c color.RGBA, alpha float64) {
	w, h := s.Size()
	fillRect(s.img, 0, 0, float32(w), float32(h), premultiply(c, alpha), false)
}

func (s *Surface) StrokeClosedPath(points []visualizer.Point, c color.RGBA, width float64) {
	if len(points) < 2 {
		return
	}
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		vector.StrokeLine(s.img, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), c, true)
	}
}

// premultiply scales c by alpha the way ebiten expects translucent colours.
func premultiply(c color.RGBA, alpha float64) color.RGBA {
	alpha = max(0, min(1, alpha))
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}
