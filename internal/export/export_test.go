package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localboard/internal/state"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

func testBoard(t *testing.T) state.BoardState {
	t.Helper()
	tile := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			tile.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, tile))

	return state.BoardState{
		Elements: []state.Element{
			&state.Shape{Base: state.Base{ID: "r", StrokeColor: "#ff0000", StrokeWidth: 2}, Form: state.KindRectangle, X: 10, Y: 10, Width: 40, Height: 40, Fill: "#ff0000"},
			&state.Shape{Base: state.Base{ID: "e", StrokeColor: "#000000", StrokeWidth: 1}, Form: state.KindEllipse, X: 60, Y: 10, Width: 30, Height: 20},
			&state.Shape{Base: state.Base{ID: "d", StrokeColor: "#000000", StrokeWidth: 1}, Form: state.KindDiamond, X: 100, Y: 10, Width: 30, Height: 20, Fill: "#ffd43b"},
			&state.Stroke{Base: state.Base{ID: "s", StrokeColor: "#000000", StrokeWidth: 3}, Points: []state.Point{{X: 0, Y: 80}, {X: 50, Y: 90}, {X: 90, Y: 80}}},
			&state.Line{Base: state.Base{ID: "a", StrokeColor: "#2f9e44", StrokeWidth: 2}, Start: state.Point{X: 10, Y: 120}, End: state.Point{X: 120, Y: 120}, Arrow: true},
			&state.Text{Base: state.Base{ID: "t", StrokeColor: "#000000", StrokeWidth: 1}, X: 10, Y: 140, Width: 100, Height: 20, Content: "hello\nboard", FontSize: 26},
			&state.Image{Base: state.Base{ID: "i"}, X: 150, Y: 60, Width: 40, Height: 40, Src: state.EncodeDataURL("image/png", buf.Bytes())},
			&state.Image{Base: state.Base{ID: "broken"}, X: 150, Y: 120, Width: 20, Height: 20, Src: "data:image/png;base64,!!"},
		},
		Camera: state.DefaultCamera(),
	}
}

func smallOptions() Options {
	return Options{Width: 200, Height: 200, Background: "#ffffff", JPEGQuality: 80}
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderImagePaintsElements(t *testing.T) {
	img := RenderImage(testBoard(t), smallOptions())
	require.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	assert.Equal(t, red, rgbaAt(img, 30, 30), "filled rectangle")
	assert.Equal(t, white, rgbaAt(img, 195, 5), "background")
	px := rgbaAt(img, 170, 80)
	assert.Greater(t, px.B, uint8(240), "embedded image")
	assert.Less(t, px.R, uint8(15), "embedded image")
	assert.NotEqual(t, white, rgbaAt(img, 160, 130), "placeholder for broken image")
	assert.NotEqual(t, white, rgbaAt(img, 115, 20), "diamond fill")
}

func TestRenderImageAppliesCamera(t *testing.T) {
	b := testBoard(t)
	b.Camera = state.Camera{X: 100, Y: 0, Zoom: 2}

	img := RenderImage(b, smallOptions())
	// the rectangle now spans x 120..200, y 20..100
	assert.Equal(t, red, rgbaAt(img, 150, 50))
	assert.Equal(t, white, rgbaAt(img, 30, 30))
}

func TestRenderImageScale(t *testing.T) {
	opts := smallOptions()
	opts.Scale = 2
	img := RenderImage(testBoard(t), opts)
	assert.Equal(t, red, rgbaAt(img, 60, 60))
}

func TestRenderTextLeavesInk(t *testing.T) {
	b := state.BoardState{
		Elements: []state.Element{&state.Text{Base: state.Base{ID: "t", StrokeColor: "#000000"}, X: 0, Y: 0, Content: "MMMM", FontSize: 39}},
		Camera:   state.DefaultCamera(),
	}
	img := RenderImage(b, smallOptions())

	inked := 0
	for y := 0; y < 39; y++ {
		for x := 0; x < 84; x++ {
			if img.RGBAAt(x, y) != white {
				inked++
			}
		}
	}
	assert.Greater(t, inked, 100)
}

func TestRenderHighlight(t *testing.T) {
	b := state.BoardState{
		Elements: []state.Element{&state.Shape{Base: state.Base{ID: "r"}, Form: state.KindRectangle, X: 50, Y: 50, Width: 20, Height: 20}},
		Camera:   state.DefaultCamera(),
	}
	opts := smallOptions()
	plain := RenderImage(b, opts)
	opts.Highlight = "r"
	lit := RenderImage(b, opts)

	assert.Equal(t, white, plain.RGBAAt(46, 60))
	assert.NotEqual(t, white, lit.RGBAAt(46, 60))
}

func TestWriteFormats(t *testing.T) {
	b := testBoard(t)
	for _, f := range []Format{FormatPNG, FormatJPEG, FormatPDF, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, f, b, smallOptions()))
			require.NotZero(t, buf.Len())

			switch f {
			case FormatPNG:
				img, err := png.Decode(&buf)
				require.NoError(t, err)
				assert.Equal(t, 200, img.Bounds().Dx())
			case FormatJPEG:
				img, err := jpeg.Decode(&buf)
				require.NoError(t, err)
				assert.Equal(t, 200, img.Bounds().Dy())
			case FormatPDF:
				assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			case FormatJSON:
				got, err := ReadJSON(&buf)
				require.NoError(t, err)
				assert.Empty(t, cmp.Diff(b, got))
			}
		})
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("tiff"), state.BoardState{}, smallOptions())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"png": FormatPNG, ".JPG": FormatJPEG, "jpeg": FormatJPEG, "PDF": FormatPDF, " json ": FormatJSON}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("svg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, ".jpg", FormatJPEG.Ext())
	assert.Equal(t, ".pdf", FormatPDF.Ext())
}

func TestReadJSONRejectsCorrupt(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString(`{"elements":[{"type":"rectangle"}]}`))
	assert.ErrorIs(t, err, state.ErrCorruptBoard)
}

func TestFitToContent(t *testing.T) {
	b := state.BoardState{Elements: []state.Element{
		&state.Shape{Base: state.Base{ID: "r"}, Form: state.KindRectangle, X: 1000, Y: 1000, Width: 100, Height: 50},
	}}
	cam := FitToContent(b, 200, 200, 0)
	assert.InDelta(t, 2.0, cam.Zoom, 1e-9)

	tl := cam.ToScreen(state.Point{X: 1000, Y: 1000})
	br := cam.ToScreen(state.Point{X: 1100, Y: 1050})
	assert.InDelta(t, 0, tl.X, 1e-9)
	assert.InDelta(t, 200, br.X, 1e-9)
	assert.InDelta(t, 50, tl.Y, 1e-9)
	assert.InDelta(t, 150, br.Y, 1e-9)

	assert.Equal(t, state.DefaultCamera(), FitToContent(state.BoardState{}, 200, 200, 10))
}

func TestParseColor(t *testing.T) {
	c, ok := parseColor("#1e1e1e", white)
	assert.True(t, ok)
	assert.Equal(t, color.RGBA{R: 30, G: 30, B: 30, A: 255}, c)

	c, ok = parseColor("Red", white)
	assert.True(t, ok)
	assert.Equal(t, red, c)

	_, ok = parseColor("transparent", white)
	assert.False(t, ok)

	c, ok = parseColor("#zzzzzz", white)
	assert.True(t, ok)
	assert.Equal(t, white, c)
}

func TestWriteJSONRefusesDuplicateIDs(t *testing.T) {
	dup := &state.Shape{Base: state.Base{ID: "a"}, Form: state.KindRectangle, Width: 5, Height: 5}
	b := state.BoardState{Elements: []state.Element{dup, dup.Clone()}, Camera: state.DefaultCamera()}

	var buf bytes.Buffer
	err := WriteJSON(&buf, b)
	assert.ErrorIs(t, err, state.ErrCorruptBoard)
	assert.Zero(t, buf.Len())
}
