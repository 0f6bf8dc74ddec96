package state

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind names an element variant. It is the "type" field of the JSON form.
type Kind string

const (
	KindStroke    Kind = "stroke"
	KindLine      Kind = "line"
	KindArrow     Kind = "arrow"
	KindRectangle Kind = "rectangle"
	KindEllipse   Kind = "ellipse"
	KindDiamond   Kind = "diamond"
	KindText      Kind = "text"
	KindImage     Kind = "image"
)

// Default style for elements created without one.
const (
	DefaultStrokeColor = "#1e1e1e"
	DefaultStrokeWidth = 2
	DefaultFontSize    = 20
)

// Base holds the fields every element carries.
type Base struct {
	ID          string  `json:"id"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Header gives access to the common fields of an element.
func (b *Base) Header() *Base { return b }

func (b *Base) sealed() {}

// Element is one drawable object on the board. The set of implementations is
// closed: *Stroke, *Line, *Shape, *Text and *Image.
type Element interface {
	Kind() Kind
	Header() *Base
	Clone() Element
	sealed()
}

// Stroke is a freehand path.
type Stroke struct {
	Base
	Points []Point `json:"points"`
}

func (s *Stroke) Kind() Kind { return KindStroke }

func (s *Stroke) Clone() Element {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	return &c
}

// Line is a straight segment, optionally drawn with an arrow head at End.
type Line struct {
	Base
	Start Point `json:"start"`
	End   Point `json:"end"`
	Arrow bool  `json:"-"`
}

func (l *Line) Kind() Kind {
	if l.Arrow {
		return KindArrow
	}
	return KindLine
}

func (l *Line) Clone() Element {
	c := *l
	return &c
}

// Shape is a rectangle, ellipse or diamond inscribed in its bounding box.
type Shape struct {
	Base
	Form   Kind    `json:"-"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Fill   string  `json:"fill,omitempty"`
}

func (s *Shape) Kind() Kind { return s.Form }

func (s *Shape) Clone() Element {
	c := *s
	return &c
}

// Text is a single block of text anchored at its top-left corner.
type Text struct {
	Base
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Content  string  `json:"text"`
	FontSize float64 `json:"fontSize"`
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) Clone() Element {
	c := *t
	return &c
}

// Image is a raster placed on the board. Src is a data URL.
type Image struct {
	Base
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Src    string  `json:"src"`
	Name   string  `json:"name,omitempty"`
}

func (i *Image) Kind() Kind { return KindImage }

func (i *Image) Clone() Element {
	c := *i
	return &c
}

// IsShapeKind reports whether k is drawn by a *Shape.
func IsShapeKind(k Kind) bool {
	switch k {
	case KindRectangle, KindEllipse, KindDiamond:
		return true
	}
	return false
}

// Camera is the pan/zoom transform applied when rendering.
// A world point p lands on screen at p*Zoom + (X, Y).
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

const (
	MinZoom  = 0.2
	MaxZoom  = 4.0
	ZoomStep = 1.1
)

// DefaultCamera is the identity view.
func DefaultCamera() Camera {
	return Camera{Zoom: 1}
}

// ToScreen maps a world point through the camera.
func (c Camera) ToScreen(p Point) Point {
	return Point{X: p.X*c.Zoom + c.X, Y: p.Y*c.Zoom + c.Y}
}

// ToWorld is the inverse of ToScreen.
func (c Camera) ToWorld(p Point) Point {
	return Point{X: (p.X - c.X) / c.Zoom, Y: (p.Y - c.Y) / c.Zoom}
}

func clampZoom(z float64) float64 {
	if z != z || z <= 0 {
		return 1
	}
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
