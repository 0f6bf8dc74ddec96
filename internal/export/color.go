package export

import (
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]color.RGBA{
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"green":  {G: 255, A: 255},
	"blue":   {B: 255, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
}

// parseColor turns a "#rrggbb", "#rgb" or basic color name into RGBA. ok is
// false for colors that should not be painted at all.
func parseColor(s string, fallback color.RGBA) (c color.RGBA, ok bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "none", "transparent":
		return color.RGBA{}, false
	}
	if named, found := namedColors[s]; found {
		return named, true
	}
	hex, err := colorful.Hex(s)
	if err != nil {
		return fallback, true
	}
	r, g, b := hex.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}
