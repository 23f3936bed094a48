package visualizer

import (
	"image/color"
	"math"
	"strings"
)

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// litThreshold is the intensity below which a dot is drawn blank.
const litThreshold = 0.15

type dot struct {
	c         color.RGBA
	intensity float64
}

// Canvas is a Surface rasterised onto a grid of braille cells, 2x4 dots
// each. The logical CanvasSize square is scaled to fit the grid and
// centred. Canvas is not safe for concurrent use.
type Canvas struct {
	cols, rows int
	dotW, dotH int
	scale      float64
	offX, offY float64
	dots       []dot
	profile    colorProfile
	background color.RGBA
}

// NewCanvas creates a canvas of cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{profile: currentColorProfile(), background: Background}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell grid and clears the canvas.
func (c *Canvas) Resize(cols, rows int) {
	cols = max(cols, 1)
	rows = max(rows, 1)
	if cols == c.cols && rows == c.rows {
		return
	}
	c.cols, c.rows = cols, rows
	c.dotW, c.dotH = cols*2, rows*4
	c.scale = math.Min(float64(c.dotW), float64(c.dotH)) / CanvasSize
	c.offX = (float64(c.dotW) - CanvasSize*c.scale) / 2
	c.offY = (float64(c.dotH) - CanvasSize*c.scale) / 2
	c.dots = make([]dot, c.dotW*c.dotH)
}

// Cells returns the grid size in terminal cells.
func (c *Canvas) Cells() (cols, rows int) { return c.cols, c.rows }

// Size returns the logical canvas size.
func (c *Canvas) Size() (w, h float64) { return CanvasSize, CanvasSize }

// Clear turns every dot off.
func (c *Canvas) Clear() {
	clear(c.dots)
}

// Fill fades every dot towards col by alpha.
func (c *Canvas) Fill(col color.RGBA, alpha float64) {
	alpha = clamp01(alpha)
	c.background = col
	for i := range c.dots {
		d := &c.dots[i]
		if d.intensity == 0 {
			continue
		}
		d.intensity *= 1 - alpha
		if d.intensity < 1e-3 {
			d.intensity = 0
		}
	}
}

// StrokeClosedPath lights the dots along the polygon through points.
// Stroke width is ignored: a dot is the thinnest line the grid can show.
func (c *Canvas) StrokeClosedPath(points []Point, col color.RGBA, width float64) {
	if len(points) < 2 {
		return
	}
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		c.line(c.toDot(a), c.toDot(b), col)
	}
}

func (c *Canvas) toDot(p Point) Point {
	return Point{X: c.offX + p.X*c.scale, Y: c.offY + p.Y*c.scale}
}

func (c *Canvas) line(a, b Point, col color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		c.set(int(a.X), int(a.Y), col)
		return
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		c.set(int(a.X+dx*t), int(a.Y+dy*t), col)
	}
}

func (c *Canvas) set(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.dotW || y >= c.dotH {
		return
	}
	c.dots[y*c.dotW+x] = dot{c: col, intensity: 1}
}

// Lit reports whether the dot at grid position (x, y) is visible.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x >= c.dotW || y >= c.dotH {
		return false
	}
	return c.dots[y*c.dotW+x].intensity >= litThreshold
}

// LitCount returns the number of visible dots.
func (c *Canvas) LitCount() int {
	n := 0
	for _, d := range c.dots {
		if d.intensity >= litThreshold {
			n++
		}
	}
	return n
}

// View renders the canvas as rows of braille runes. Each cell takes the
// colour of its brightest dot, blended towards the background by how far
// that dot has faded.
func (c *Canvas) View() string {
	var sb strings.Builder
	sb.Grow(c.rows * (c.cols*4 + 1))
	ansi := newANSIState(c.profile)

	for row := range c.rows {
		if row > 0 {
			ansi.reset(&sb)
			sb.WriteByte('\n')
		}
		for col := range c.cols {
			var pattern uint
			var brightest dot
			for dx := range 2 {
				for dy := range 4 {
					d := c.dots[(row*4+dy)*c.dotW+col*2+dx]
					if d.intensity < litThreshold {
						continue
					}
					pattern |= 1 << brailleBits[dx][dy]
					if d.intensity > brightest.intensity {
						brightest = d
					}
				}
			}
			if pattern == 0 {
				ansi.reset(&sb)
				sb.WriteByte(' ')
				continue
			}
			ansi.set(&sb, lerpColor(c.background, brightest.c, brightest.intensity))
			sb.WriteRune(rune(0x2800 + pattern))
		}
	}
	ansi.reset(&sb)
	return sb.String()
}
