package export

import (
	"math"

	"localboard/internal/state"
)

// Options describes the surface a board is rendered onto.
type Options struct {
	Width       int
	Height      int
	Background  string
	GridSize    float64
	JPEGQuality int

	// Scale is the number of device pixels per screen unit. Zero means 1.
	Scale float64

	// Highlight outlines the element with this id, as the app does for the
	// selection.
	Highlight string
}

// DefaultOptions matches the default canvas configuration.
func DefaultOptions() Options {
	return Options{Width: 1280, Height: 800, Background: "#ffffff", JPEGQuality: 90}
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 800
	}
	return w, h
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// FitToContent returns a camera that frames every element of b inside a
// width x height surface with the given margin.
func FitToContent(b state.BoardState, width, height int, margin float64) state.Camera {
	bounds := state.SceneBounds(b.Elements)
	if len(b.Elements) == 0 || bounds.Empty() {
		return state.DefaultCamera()
	}
	availW := float64(width) - 2*margin
	availH := float64(height) - 2*margin
	zoom := 1.0
	if bounds.Width > 0 && bounds.Height > 0 {
		zoom = math.Min(availW/bounds.Width, availH/bounds.Height)
	}
	zoom = math.Max(state.MinZoom, math.Min(state.MaxZoom, zoom))
	return state.Camera{
		X:    margin + (availW-bounds.Width*zoom)/2 - bounds.X*zoom,
		Y:    margin + (availH-bounds.Height*zoom)/2 - bounds.Y*zoom,
		Zoom: zoom,
	}
}
