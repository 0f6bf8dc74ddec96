package ui

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/lucasb-eyer/go-colorful"

	"localboard/internal/state"
)

// Tool is what a drag on the board does.
type Tool string

const (
	ToolSelect  Tool = "Select"
	ToolPen     Tool = "Pen"
	ToolEraser  Tool = "Eraser"
	ToolLine    Tool = "Line"
	ToolArrow   Tool = "Arrow"
	ToolRect    Tool = "Rectangle"
	ToolEllipse Tool = "Ellipse"
	ToolDiamond Tool = "Diamond"
	ToolText    Tool = "Text"
)

var allTools = []Tool{ToolSelect, ToolPen, ToolEraser, ToolLine, ToolArrow, ToolRect, ToolEllipse, ToolDiamond, ToolText}

// minDrag is how far, in world units, a shape or line must span to be kept.
const minDrag = 2.0

// Style is applied to newly drawn elements.
type Style struct {
	Color    string
	Width    float64
	Fill     string
	FontSize float64
}

func (s Style) base() state.Base {
	return state.Base{ID: state.NewElementID(), StrokeColor: s.Color, StrokeWidth: s.Width}
}

// build turns a drag from start to end into an element. It returns nil for
// tools that do not draw by dragging and for drags too small to keep.
func (t Tool) build(start, end state.Point, st Style) state.Element {
	switch t {
	case ToolLine, ToolArrow:
		if math.Hypot(end.X-start.X, end.Y-start.Y) < minDrag {
			return nil
		}
		return &state.Line{Base: st.base(), Start: start, End: end, Arrow: t == ToolArrow}
	case ToolRect, ToolEllipse, ToolDiamond:
		x, y := math.Min(start.X, end.X), math.Min(start.Y, end.Y)
		w, h := math.Abs(end.X-start.X), math.Abs(end.Y-start.Y)
		if w < minDrag || h < minDrag {
			return nil
		}
		form := map[Tool]state.Kind{ToolRect: state.KindRectangle, ToolEllipse: state.KindEllipse, ToolDiamond: state.KindDiamond}[t]
		return &state.Shape{Base: st.base(), Form: form, X: x, Y: y, Width: w, Height: h, Fill: st.Fill}
	}
	return nil
}

// newText lays out content at a world point, sized so it can be picked.
func newText(at state.Point, content string, st Style) *state.Text {
	t := &state.Text{Base: st.base(), X: at.X, Y: at.Y, Content: content, FontSize: st.FontSize}
	t.Width, t.Height = state.MeasureText(content, st.FontSize)
	return t
}

// hexColor converts a swatch colour to the "#rrggbb" form elements store.
func hexColor(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return state.DefaultStrokeColor
	}
	return cf.Hex()
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

var palette = []color.Color{
	color.NRGBA{R: 30, G: 30, B: 30, A: 255},
	color.NRGBA{R: 224, G: 49, B: 49, A: 255},
	color.NRGBA{R: 47, G: 158, B: 68, A: 255},
	color.NRGBA{R: 25, G: 113, B: 194, A: 255},
	color.NRGBA{R: 240, G: 140, B: 0, A: 255},
}

// newToolbar builds the top bar: actions, tool picker, colours and stroke size.
func newToolbar(a *boardApp) fyne.CanvasObject {
	board := a.board
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), a.undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), a.redo),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { a.store.ZoomIn() }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { a.store.ZoomOut() }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { a.store.ResetView() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MoveUpIcon(), a.bringForward),
		widget.NewToolbarAction(theme.MoveDownIcon(), a.sendBackward),
		widget.NewToolbarAction(theme.DeleteIcon(), a.deleteSelected),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FileImageIcon(), a.uploadImage),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.save),
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.load),
		widget.NewToolbarAction(theme.ContentCopyIcon(), a.share),
	)

	names := make([]string, len(allTools))
	for i, t := range allTools {
		names[i] = string(t)
	}
	toolSelect := widget.NewSelect(names, func(s string) { board.SetTool(Tool(s)) })
	toolSelect.SetSelected(string(board.Tool()))

	onColorTapped := func(c color.Color) { board.SetColor(hexColor(c)) }
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, onColorTapped))
	}

	strokeSlider := widget.NewSlider(1.0, 50.0)
	strokeSlider.SetValue(board.Style().Width)
	strokeSlider.OnChanged = board.SetStrokeWidth
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), strokeSlider)

	return container.NewHBox(
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Tool:"),
		toolSelect,
		widget.NewSeparator(),
		colorBox,
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
