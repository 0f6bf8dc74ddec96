package state

import (
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Rect is an axis-aligned box in world coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rect covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 && r.Height <= 0
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Overlaps reports whether r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.X+r.Width < o.X || o.X+o.Width < r.X ||
		r.Y+r.Height < o.Y || o.Y+o.Height < r.Y)
}

// Union returns the smallest rect covering both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inset grows r by d on every side (shrinks for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// boxOf normalizes a box that may have negative width or height, which is what
// a shape dragged up or left produces.
func boxOf(x, y, w, h float64) Rect {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func pointsBounds(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Bounds returns the box an element covers, including half its stroke width.
func Bounds(e Element) Rect {
	var r Rect
	switch v := e.(type) {
	case *Stroke:
		r = pointsBounds(v.Points)
	case *Line:
		r = pointsBounds([]Point{v.Start, v.End})
	case *Shape:
		r = boxOf(v.X, v.Y, v.Width, v.Height)
	case *Text:
		w, h := v.Width, v.Height
		if w <= 0 || h <= 0 {
			w, h = MeasureText(v.Content, v.FontSize)
		}
		r = boxOf(v.X, v.Y, w, h)
	case *Image:
		r = boxOf(v.X, v.Y, v.Width, v.Height)
	default:
		return Rect{}
	}
	return r.Inset(e.Header().StrokeWidth / 2)
}

// SceneBounds is the union of all element bounds.
func SceneBounds(elements []Element) Rect {
	var out Rect
	first := true
	for _, e := range elements {
		if e == nil {
			continue
		}
		b := Bounds(e)
		if first {
			out, first = b, false
			continue
		}
		out = out.Union(b)
	}
	return out
}

// GlyphHeight is the line height of the face text is laid out with. A font
// size of GlyphHeight draws glyphs at their natural size.
const GlyphHeight = 13

// MeasureText is the world size of content drawn at fontSize, one line per
// newline. It matches how the exporters lay text out.
func MeasureText(content string, fontSize float64) (w, h float64) {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	lines := strings.Split(content, "\n")
	widest := 0
	for _, line := range lines {
		if n := font.MeasureString(basicfont.Face7x13, line).Ceil(); n > widest {
			widest = n
		}
	}
	k := fontSize / GlyphHeight
	return float64(widest) * k, float64(len(lines)) * fontSize
}
