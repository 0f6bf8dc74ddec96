package ui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"localboard/internal/export"
	"localboard/internal/state"
)

// hitSlop is the pick tolerance in screen units.
const hitSlop = 4.0

// BoardWidget draws the store through its camera and turns pointer input into
// store operations. It holds no board data of its own besides the element
// being drawn.
type BoardWidget struct {
	widget.BaseWidget

	store  *state.Store
	render export.Options
	logger *zap.Logger

	mu      sync.Mutex
	tool    Tool
	style   Style
	drawing bool
	start   state.Point
	pending state.Element
	erased  bool

	// OnTextRequest asks the app for text to place at a world point.
	OnTextRequest func(at state.Point)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget binds a widget to store. render supplies the background and
// grid; its size fields are replaced by the widget's own size.
func NewBoardWidget(store *state.Store, render export.Options, style Style, logger *zap.Logger) *BoardWidget {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BoardWidget{store: store, render: render, style: style, tool: ToolPen, logger: logger}
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) SetTool(t Tool) {
	b.mu.Lock()
	b.tool = t
	b.pending = nil
	b.drawing = false
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) Tool() Tool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tool
}

func (b *BoardWidget) Style() Style {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.style
}

func (b *BoardWidget) SetColor(hex string) {
	b.mu.Lock()
	b.style.Color = hex
	b.mu.Unlock()
}

func (b *BoardWidget) SetStrokeWidth(w float64) {
	b.mu.Lock()
	b.style.Width = w
	b.mu.Unlock()
}

func (b *BoardWidget) toWorld(p fyne.Position) state.Point {
	return b.store.Camera().ToWorld(state.Point{X: float64(p.X), Y: float64(p.Y)})
}

// AddText commits a text element at a world point.
func (b *BoardWidget) AddText(at state.Point, content string) {
	if content == "" {
		return
	}
	t := newText(at, content, b.Style())
	b.store.PushHistory()
	b.store.AddElement(t)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p := b.toWorld(e.Position)

	b.mu.Lock()
	tool, st := b.tool, b.style
	b.drawing = true
	b.start = p
	b.erased = false
	b.pending = nil
	if tool == ToolPen {
		b.pending = &state.Stroke{Base: st.base(), Points: []state.Point{p}}
	}
	b.mu.Unlock()

	switch tool {
	case ToolSelect:
		id, _ := b.store.HitTest(p, hitSlop/b.store.Camera().Zoom)
		b.store.SelectElement(id)
	case ToolEraser:
		b.eraseAt(p)
	case ToolText:
		b.mu.Lock()
		b.drawing = false
		b.mu.Unlock()
		if b.OnTextRequest != nil {
			b.OnTextRequest(p)
		}
	}
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.mu.Lock()
	if !b.drawing {
		b.mu.Unlock()
		return
	}
	tool, st, start := b.tool, b.style, b.start
	b.mu.Unlock()

	switch tool {
	case ToolSelect:
		b.store.Pan(float64(e.Dragged.DX), float64(e.Dragged.DY))
		return
	case ToolEraser:
		b.eraseAt(b.toWorld(e.Position))
		return
	}

	p := b.toWorld(e.Position)
	b.mu.Lock()
	if stroke, ok := b.pending.(*state.Stroke); ok && tool == ToolPen {
		stroke.Points = append(stroke.Points, p)
	} else {
		b.pending = tool.build(start, p, st)
	}
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) DragEnd() { b.finish() }

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.finish()
	}
}

// finish commits the element being drawn. Fyne reports both DragEnd and
// MouseUp for a drag, so it must be safe to call twice.
func (b *BoardWidget) finish() {
	b.mu.Lock()
	e := b.pending
	b.pending = nil
	b.drawing = false
	b.mu.Unlock()

	if e == nil {
		return
	}
	if s, ok := e.(*state.Stroke); ok && len(s.Points) < 2 {
		b.Refresh()
		return
	}
	b.store.PushHistory()
	b.store.AddElement(e)
	b.logger.Debug("element drawn", zap.String("element_id", e.Header().ID), zap.String("kind", string(e.Kind())))
}

// eraseAt removes the topmost element under p. One checkpoint covers a whole
// eraser drag.
func (b *BoardWidget) eraseAt(p state.Point) {
	id, ok := b.store.HitTest(p, hitSlop/b.store.Camera().Zoom)
	if !ok {
		return
	}
	b.mu.Lock()
	first := !b.erased
	b.erased = true
	b.mu.Unlock()
	if first {
		b.store.PushHistory()
	}
	b.store.RemoveElement(id)
}

// Scrolled zooms in or out one step per wheel notch.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	switch {
	case e.Scrolled.DY > 0:
		b.store.ZoomIn()
	case e.Scrolled.DY < 0:
		b.store.ZoomOut()
	}
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseOut()                      {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

// draw renders the board plus the in-progress element at w x h pixels.
func (b *BoardWidget) draw(w, h int) image.Image {
	board := b.store.Snapshot()
	b.mu.Lock()
	if b.pending != nil {
		board.Elements = append(board.Elements, b.pending.Clone())
	}
	b.mu.Unlock()

	opts := b.render
	opts.Width, opts.Height = w, h
	opts.Scale = 1
	if size := b.Size(); size.Width > 0 {
		opts.Scale = float64(w) / float64(size.Width)
	}
	opts.Highlight = b.store.Selected()
	return export.RenderImage(board, opts)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b, raster: canvas.NewRaster(b.draw)}
}

type boardWidgetRenderer struct {
	board  *BoardWidget
	raster *canvas.Raster
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.raster}
}

func (r *boardWidgetRenderer) Refresh() { r.raster.Refresh() }

func (r *boardWidgetRenderer) Layout(size fyne.Size) { r.raster.Resize(size) }

func (r *boardWidgetRenderer) MinSize() fyne.Size { return fyne.NewSize(300, 300) }

func (r *boardWidgetRenderer) Destroy() {}
