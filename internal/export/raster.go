package export

import (
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"localboard/internal/state"
)

var (
	gridColor      = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	highlightColor = color.RGBA{R: 25, G: 113, B: 194, A: 255}
	missingColor   = color.RGBA{R: 233, G: 236, B: 239, A: 255}
	defaultInk     = color.RGBA{R: 30, G: 30, B: 30, A: 255}
)

// basicfont glyphs are 13px tall with an 11px ascent.
const (
	glyphHeight = state.GlyphHeight
	glyphAscent = 11
)

type fpoint struct{ x, y float32 }

type rasterizer struct {
	dst   *image.RGBA
	z     *vector.Rasterizer
	cam   state.Camera
	scale float64
}

// RenderImage draws the board through its camera onto a new image.
func RenderImage(b state.BoardState, opts Options) *image.RGBA {
	w, h := opts.size()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg, ok := parseColor(opts.Background, color.RGBA{R: 255, G: 255, B: 255, A: 255}); ok {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	r := &rasterizer{dst: dst, z: vector.NewRasterizer(w, h), cam: b.Camera, scale: opts.scale()}
	if r.cam.Zoom <= 0 {
		r.cam.Zoom = 1
	}
	if opts.GridSize > 0 {
		r.grid(opts.GridSize)
	}
	for _, e := range b.Elements {
		if e != nil {
			r.element(e)
		}
	}
	if opts.Highlight != "" {
		for _, e := range b.Elements {
			if e != nil && e.Header().ID == opts.Highlight {
				r.outlineRect(state.Bounds(e).Inset(4), highlightColor, 1)
			}
		}
	}
	return dst
}

func (r *rasterizer) toDevice(p state.Point) fpoint {
	s := r.cam.ToScreen(p)
	return fpoint{float32(s.X * r.scale), float32(s.Y * r.scale)}
}

func (r *rasterizer) lineWidth(w float64) float32 {
	d := float32(w * r.cam.Zoom * r.scale)
	if d < 1 {
		d = 1
	}
	return d
}

func (r *rasterizer) element(e state.Element) {
	base := e.Header()
	ink, paint := parseColor(base.StrokeColor, defaultInk)
	width := r.lineWidth(base.StrokeWidth)

	switch v := e.(type) {
	case *state.Stroke:
		if !paint {
			return
		}
		pts := make([]fpoint, len(v.Points))
		for i, p := range v.Points {
			pts[i] = r.toDevice(p)
		}
		r.polyline(pts, width, false, ink)
	case *state.Line:
		if !paint {
			return
		}
		a, b := r.toDevice(v.Start), r.toDevice(v.End)
		r.polyline([]fpoint{a, b}, width, false, ink)
		if v.Arrow {
			r.polyline(arrowHead(a, b, width), width, false, ink)
		}
	case *state.Shape:
		outline := r.shapeOutline(v)
		if fill, ok := parseColor(v.Fill, defaultInk); ok {
			r.fill(outline, fill)
		}
		if paint && base.StrokeWidth > 0 {
			r.polyline(outline, width, true, ink)
		}
	case *state.Text:
		if paint {
			r.text(v, ink)
		}
	case *state.Image:
		r.image(v)
	}
}

func (r *rasterizer) shapeOutline(s *state.Shape) []fpoint {
	x0, y0 := s.X, s.Y
	x1, y1 := s.X+s.Width, s.Y+s.Height
	cx, cy := (x0+x1)/2, (y0+y1)/2
	var world []state.Point
	switch s.Form {
	case state.KindEllipse:
		const segments = 48
		rx, ry := math.Abs(s.Width)/2, math.Abs(s.Height)/2
		for i := 0; i < segments; i++ {
			a := 2 * math.Pi * float64(i) / segments
			world = append(world, state.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)})
		}
	case state.KindDiamond:
		world = []state.Point{{X: cx, Y: y0}, {X: x1, Y: cy}, {X: cx, Y: y1}, {X: x0, Y: cy}}
	default:
		world = []state.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	}
	out := make([]fpoint, len(world))
	for i, p := range world {
		out[i] = r.toDevice(p)
	}
	return out
}

func arrowHead(from, to fpoint, width float32) []fpoint {
	dx, dy := float64(to.x-from.x), float64(to.y-from.y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	head := math.Max(10, 3*float64(width))
	ux, uy := dx/length, dy/length
	const spread = 25 * math.Pi / 180
	side := func(angle float64) fpoint {
		c, s := math.Cos(angle), math.Sin(angle)
		rx := ux*c - uy*s
		ry := ux*s + uy*c
		return fpoint{to.x - float32(rx*head), to.y - float32(ry*head)}
	}
	return []fpoint{side(spread), to, side(-spread)}
}

// addPolygon adds a closed contour wound counter-clockwise. The rasterizer
// clamps coverage, so overlapping contours with the same winding just merge.
func (r *rasterizer) addPolygon(pts []fpoint) {
	if len(pts) < 3 {
		return
	}
	var area float32
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	r.z.MoveTo(pts[0].x, pts[0].y)
	if area >= 0 {
		for _, p := range pts[1:] {
			r.z.LineTo(p.x, p.y)
		}
	} else {
		for i := len(pts) - 1; i > 0; i-- {
			r.z.LineTo(pts[i].x, pts[i].y)
		}
	}
	r.z.ClosePath()
}

func (r *rasterizer) paint(c color.Color) {
	r.z.Draw(r.dst, r.dst.Bounds(), image.NewUniform(c), image.Point{})
}

func (r *rasterizer) reset() {
	b := r.dst.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
}

func (r *rasterizer) fill(pts []fpoint, c color.Color) {
	r.reset()
	r.addPolygon(pts)
	r.paint(c)
}

// polyline strokes a path as one quad per segment plus a round join at every
// vertex.
func (r *rasterizer) polyline(pts []fpoint, width float32, closed bool, c color.Color) {
	if len(pts) == 0 {
		return
	}
	r.reset()
	half := width / 2
	n := len(pts)
	if closed {
		n++
	}
	for i := 1; i < n; i++ {
		a, b := pts[i-1], pts[i%len(pts)]
		dx, dy := b.x-a.x, b.y-a.y
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		r.addPolygon([]fpoint{
			{a.x + nx, a.y + ny}, {b.x + nx, b.y + ny},
			{b.x - nx, b.y - ny}, {a.x - nx, a.y - ny},
		})
	}
	for _, p := range pts {
		r.addPolygon(disc(p, half))
	}
	r.paint(c)
}

func disc(c fpoint, radius float32) []fpoint {
	const sides = 12
	out := make([]fpoint, sides)
	for i := range out {
		a := 2 * math.Pi * float64(i) / sides
		out[i] = fpoint{c.x + radius*float32(math.Cos(a)), c.y + radius*float32(math.Sin(a))}
	}
	return out
}

func (r *rasterizer) outlineRect(rect state.Rect, c color.Color, width float64) {
	corners := []state.Point{
		{X: rect.X, Y: rect.Y}, {X: rect.X + rect.Width, Y: rect.Y},
		{X: rect.X + rect.Width, Y: rect.Y + rect.Height}, {X: rect.X, Y: rect.Y + rect.Height},
	}
	pts := make([]fpoint, len(corners))
	for i, p := range corners {
		pts[i] = r.toDevice(p)
	}
	r.polyline(pts, float32(width*r.scale), true, c)
}

func (r *rasterizer) grid(size float64) {
	step := size * r.cam.Zoom * r.scale
	if step < 4 {
		return
	}
	b := r.dst.Bounds()
	offX := math.Mod(r.cam.X*r.scale, step)
	offY := math.Mod(r.cam.Y*r.scale, step)
	for x := offX; x < float64(b.Dx()); x += step {
		r.polyline([]fpoint{{float32(x), 0}, {float32(x), float32(b.Dy())}}, 1, false, gridColor)
	}
	for y := offY; y < float64(b.Dy()); y += step {
		r.polyline([]fpoint{{0, float32(y)}, {float32(b.Dx()), float32(y)}}, 1, false, gridColor)
	}
}

// text renders with the fixed 7x13 face, then scales the glyphs to the
// element's font size.
func (r *rasterizer) text(t *state.Text, ink color.RGBA) {
	lines := strings.Split(t.Content, "\n")
	face := basicfont.Face7x13
	widest := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > widest {
			widest = w
		}
	}
	if widest == 0 {
		return
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, widest, glyphHeight*len(lines)))
	d := &font.Drawer{Dst: glyphs, Src: image.NewUniform(ink), Face: face}
	for i, line := range lines {
		d.Dot = fixed.P(0, glyphHeight*i+glyphAscent)
		d.DrawString(line)
	}

	size := t.FontSize
	if size <= 0 {
		size = state.DefaultFontSize
	}
	k := size / glyphHeight * r.cam.Zoom * r.scale
	origin := r.toDevice(state.Point{X: t.X, Y: t.Y})
	dr := image.Rect(
		int(origin.x), int(origin.y),
		int(origin.x)+int(math.Ceil(float64(widest)*k)),
		int(origin.y)+int(math.Ceil(float64(glyphs.Bounds().Dy())*k)),
	)
	draw.ApproxBiLinear.Scale(r.dst, dr, glyphs, glyphs.Bounds(), draw.Over, nil)
}

func (r *rasterizer) image(im *state.Image) {
	a := r.toDevice(state.Point{X: im.X, Y: im.Y})
	b := r.toDevice(state.Point{X: im.X + im.Width, Y: im.Y + im.Height})
	dr := image.Rect(int(a.x), int(a.y), int(math.Ceil(float64(b.x))), int(math.Ceil(float64(b.y)))).Canon()
	if dr.Empty() {
		return
	}

	src, err := state.DecodeImageSource(im.Src)
	if err != nil {
		draw.Draw(r.dst, dr, image.NewUniform(missingColor), image.Point{}, draw.Over)
		r.outlineRect(state.Rect{X: im.X, Y: im.Y, Width: im.Width, Height: im.Height}, gridColor, 1)
		return
	}
	draw.CatmullRom.Scale(r.dst, dr, src, src.Bounds(), draw.Over, nil)
}
