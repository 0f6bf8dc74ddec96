package export

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"localboard/internal/state"
)

// WritePDF writes the board as a single vector page the size of the surface,
// one point per screen unit.
func WritePDF(w io.Writer, b state.BoardState, opts Options) error {
	width, height := opts.size()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	if bg, ok := parseColor(opts.Background, color.RGBA{R: 255, G: 255, B: 255, A: 255}); ok {
		pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
		pdf.Rect(0, 0, float64(width), float64(height), "F")
	}

	cam := b.Camera
	if cam.Zoom <= 0 {
		cam.Zoom = 1
	}
	for _, e := range b.Elements {
		if e == nil {
			continue
		}
		if err := pdfElement(pdf, cam, e); err != nil {
			return err
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	return pdf.Output(w)
}

func pdfElement(pdf *gofpdf.Fpdf, cam state.Camera, e state.Element) error {
	base := e.Header()
	ink, paint := parseColor(base.StrokeColor, defaultInk)
	pdf.SetDrawColor(int(ink.R), int(ink.G), int(ink.B))
	pdf.SetLineWidth(math.Max(0.5, base.StrokeWidth*cam.Zoom))

	switch v := e.(type) {
	case *state.Stroke:
		if !paint {
			return nil
		}
		for i := 1; i < len(v.Points); i++ {
			a, b := cam.ToScreen(v.Points[i-1]), cam.ToScreen(v.Points[i])
			pdf.Line(a.X, a.Y, b.X, b.Y)
		}
	case *state.Line:
		if !paint {
			return nil
		}
		a, b := cam.ToScreen(v.Start), cam.ToScreen(v.End)
		pdf.Line(a.X, a.Y, b.X, b.Y)
		if v.Arrow {
			head := arrowHead(fpoint{float32(a.X), float32(a.Y)}, fpoint{float32(b.X), float32(b.Y)}, float32(base.StrokeWidth*cam.Zoom))
			for i := 1; i < len(head); i++ {
				pdf.Line(float64(head[i-1].x), float64(head[i-1].y), float64(head[i].x), float64(head[i].y))
			}
		}
	case *state.Shape:
		pdfShape(pdf, cam, v, paint && base.StrokeWidth > 0)
	case *state.Text:
		if !paint {
			return nil
		}
		size := v.FontSize
		if size <= 0 {
			size = state.DefaultFontSize
		}
		size *= cam.Zoom
		pdf.SetFont("Helvetica", "", size)
		pdf.SetTextColor(int(ink.R), int(ink.G), int(ink.B))
		origin := cam.ToScreen(state.Point{X: v.X, Y: v.Y})
		for i, line := range strings.Split(v.Content, "\n") {
			pdf.Text(origin.X, origin.Y+size*(float64(i)+0.85), line)
		}
	case *state.Image:
		return pdfImage(pdf, cam, v)
	default:
		return fmt.Errorf("unsupported element %T", e)
	}
	return nil
}

func pdfShape(pdf *gofpdf.Fpdf, cam state.Camera, s *state.Shape, outline bool) {
	style := ""
	if fill, ok := parseColor(s.Fill, defaultInk); ok {
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		style = "F"
	}
	if outline {
		style += "D"
	}
	if style == "" {
		return
	}

	r := state.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	tl := cam.ToScreen(state.Point{X: math.Min(r.X, r.X+r.Width), Y: math.Min(r.Y, r.Y+r.Height)})
	w, h := math.Abs(r.Width)*cam.Zoom, math.Abs(r.Height)*cam.Zoom

	switch s.Form {
	case state.KindEllipse:
		pdf.Ellipse(tl.X+w/2, tl.Y+h/2, w/2, h/2, 0, style)
	case state.KindDiamond:
		pdf.Polygon([]gofpdf.PointType{
			{X: tl.X + w/2, Y: tl.Y},
			{X: tl.X + w, Y: tl.Y + h/2},
			{X: tl.X + w/2, Y: tl.Y + h},
			{X: tl.X, Y: tl.Y + h/2},
		}, style)
	default:
		pdf.Rect(tl.X, tl.Y, w, h, style)
	}
}

// pdfImage re-encodes the element image as PNG so any decodable source
// format ends up in the document.
func pdfImage(pdf *gofpdf.Fpdf, cam state.Camera, im *state.Image) error {
	tl := cam.ToScreen(state.Point{X: im.X, Y: im.Y})
	w, h := im.Width*cam.Zoom, im.Height*cam.Zoom

	src, err := state.DecodeImageSource(im.Src)
	if err != nil {
		pdf.SetFillColor(int(missingColor.R), int(missingColor.G), int(missingColor.B))
		pdf.Rect(tl.X, tl.Y, w, h, "F")
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return fmt.Errorf("failed to encode image %s: %w", im.ID, err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(im.ID, opts, &buf)
	pdf.ImageOptions(im.ID, tl.X, tl.Y, w, h, false, opts, 0, "")
	return nil
}
