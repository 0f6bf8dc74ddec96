package ui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"localboard/internal/config"
	"localboard/internal/export"
	"localboard/internal/localstore"
	"localboard/internal/state"
)

const (
	statusTimeout = 4 * time.Second
	ioTimeout     = 30 * time.Second
	// saves this recent are our own and not reloaded by the watcher
	selfWriteWindow = time.Second
)

// Options wires the app to an already configured store.
type Options struct {
	Config *config.Config
	Store  *state.Store
	Logger *zap.Logger

	// WatchPath, when set, reloads the board whenever that file is written
	// by another process.
	WatchPath string
}

type boardApp struct {
	app    fyne.App
	win    fyne.Window
	store  *state.Store
	board  *BoardWidget
	status *widget.Label
	cfg    *config.Config
	logger *zap.Logger

	lastSave atomic.Int64
}

// RunApp opens the board window and blocks until it is closed.
func RunApp(opts Options) error {
	if opts.Store == nil {
		return errors.New("ui: store required")
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cfg := opts.Config

	a := &boardApp{
		app:    app.NewWithID("io.localboard"),
		store:  opts.Store,
		status: widget.NewLabel("Ready"),
		cfg:    cfg,
		logger: opts.Logger,
	}
	a.win = a.app.NewWindow("LocalBoard")
	a.win.Resize(fyne.NewSize(float32(cfg.Canvas.Width), float32(cfg.Canvas.Height)))

	render := export.Options{Background: cfg.Canvas.Background, GridSize: cfg.Canvas.GridSize}
	style := Style{Color: cfg.Canvas.StrokeColor, Width: cfg.Canvas.StrokeWidth, FontSize: cfg.Canvas.FontSize}
	a.board = NewBoardWidget(a.store, render, style, a.logger)
	a.board.OnTextRequest = a.askText
	a.store.SetOnChange(func(state.Change) { fyne.Do(a.board.Refresh) })

	toolbar := newToolbar(a)
	a.win.SetContent(container.NewBorder(toolbar, a.status, nil, nil, a.board))
	a.win.SetMainMenu(a.mainMenu())
	a.bindShortcuts()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.loadInitial(ctx)
	if opts.WatchPath != "" {
		go a.watch(ctx, opts.WatchPath)
	}

	a.win.ShowAndRun()
	return nil
}

func (a *boardApp) mainMenu() *fyne.MainMenu {
	exportItem := func(f export.Format) *fyne.MenuItem {
		return fyne.NewMenuItem("Export "+string(f)+"...", func() { a.exportAs(f) })
	}
	return fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Save", a.save),
			fyne.NewMenuItem("Load", a.load),
			fyne.NewMenuItem("Import JSON...", a.importJSON),
			fyne.NewMenuItemSeparator(),
			exportItem(export.FormatPNG),
			exportItem(export.FormatJPEG),
			exportItem(export.FormatPDF),
			exportItem(export.FormatJSON),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Add image...", a.uploadImage),
		),
		fyne.NewMenu("Edit",
			fyne.NewMenuItem("Undo", a.undo),
			fyne.NewMenuItem("Redo", a.redo),
			fyne.NewMenuItem("Delete", a.deleteSelected),
			fyne.NewMenuItem("Clear board", func() {
				a.store.PushHistory()
				a.store.Clear()
			}),
		),
		fyne.NewMenu("View",
			fyne.NewMenuItem("Zoom in", func() { a.store.ZoomIn() }),
			fyne.NewMenuItem("Zoom out", func() { a.store.ZoomOut() }),
			fyne.NewMenuItem("Reset view", a.store.ResetView),
			fyne.NewMenuItem("Copy share link", a.share),
		),
	)
}

func (a *boardApp) bindShortcuts() {
	c := a.win.Canvas()
	mod := fyne.KeyModifierShortcutDefault
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: mod}, func(fyne.Shortcut) { a.undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: mod | fyne.KeyModifierShift}, func(fyne.Shortcut) { a.redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: mod}, func(fyne.Shortcut) { a.redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: mod}, func(fyne.Shortcut) { a.save() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			a.deleteSelected()
		case fyne.KeyEscape:
			a.store.SelectElement("")
		}
	})
}

// notify shows msg in the status bar for a few seconds. Safe from any goroutine.
func (a *boardApp) notify(msg string) {
	fyne.Do(func() { a.status.SetText(msg) })
	time.AfterFunc(statusTimeout, func() {
		fyne.Do(func() {
			if a.status.Text == msg {
				a.status.SetText("")
			}
		})
	})
}

func (a *boardApp) fail(what string, err error) {
	a.logger.Warn(what+" failed", zap.Error(err))
	a.notify(fmt.Sprintf("%s failed: %v", what, err))
}

func (a *boardApp) undo() {
	if !a.store.Undo() {
		a.notify("Nothing to undo")
	}
}

func (a *boardApp) redo() {
	if !a.store.Redo() {
		a.notify("Nothing to redo")
	}
}

func (a *boardApp) deleteSelected() {
	id := a.store.Selected()
	if id == "" {
		return
	}
	a.store.PushHistory()
	a.store.RemoveElement(id)
}

func (a *boardApp) bringForward() {
	if id := a.store.Selected(); id != "" {
		a.store.PushHistory()
		a.store.BringForward(id)
	}
}

func (a *boardApp) sendBackward() {
	if id := a.store.Selected(); id != "" {
		a.store.PushHistory()
		a.store.SendBackward(id)
	}
}

func (a *boardApp) askText(at state.Point) {
	entry := widget.NewMultiLineEntry()
	items := []*widget.FormItem{widget.NewFormItem("Text", entry)}
	dialog.ShowForm("Add text", "Add", "Cancel", items, func(ok bool) {
		if ok {
			a.board.AddText(at, entry.Text)
		}
	}, a.win)
}

func (a *boardApp) share() {
	link := a.store.MakeShareLink()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		if err := a.store.SaveRoom(ctx); err != nil {
			a.logger.Warn("room not saved", zap.Error(err))
		}
	}()
	a.win.Clipboard().SetContent(link)
	a.logger.Info("share link copied", zap.String("link", link))
	a.notify("Share link copied: " + link)
}

func (a *boardApp) save() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		a.lastSave.Store(time.Now().UnixNano())
		if err := a.store.SaveToLocal(ctx); err != nil {
			a.fail("Save", err)
			return
		}
		a.notify("Saved")
	}()
}

func (a *boardApp) load() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		ok, err := a.store.LoadFromLocal(ctx)
		switch {
		case err != nil:
			a.fail("Load", err)
		case !ok:
			a.notify("No saved board")
		default:
			a.notify("Loaded")
		}
	}()
}

func (a *boardApp) loadInitial(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()
	if _, err := a.store.LoadRoom(ctx); err != nil {
		a.logger.Warn("room not loaded", zap.Error(err))
	}
	if _, err := a.store.LoadFromLocal(ctx); err != nil {
		a.fail("Load", err)
	}
}

func (a *boardApp) watch(ctx context.Context, path string) {
	err := localstore.Watch(ctx, path, a.logger, func() {
		if time.Since(time.Unix(0, a.lastSave.Load())) < selfWriteWindow {
			return
		}
		if ok, err := a.store.LoadFromLocal(ctx); err != nil {
			a.fail("Reload", err)
		} else if ok {
			a.notify("Board changed on disk, reloaded")
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("board watcher stopped", zap.Error(err))
	}
}

func (a *boardApp) uploadImage() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			a.fail("Open image", err)
			return
		}
		if r == nil {
			return
		}
		go func() {
			defer r.Close()
			ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
			defer cancel()
			a.store.PushHistory()
			img, err := a.store.AddImageFromUpload(ctx, r.URI().Name(), r)
			if err != nil {
				a.store.DiscardCheckpoint()
				a.fail("Add image", err)
				return
			}
			a.store.SelectElement(img.ID)
			a.notify("Added " + r.URI().Name())
		}()
	}, a.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}))
	d.Show()
}

func (a *boardApp) importJSON() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			a.fail("Import", err)
			return
		}
		if r == nil {
			return
		}
		defer r.Close()
		b, err := export.ReadJSON(r)
		if err != nil {
			a.fail("Import", err)
			return
		}
		a.store.PushHistory()
		if err := a.store.Restore(b); err != nil {
			a.fail("Import", err)
			return
		}
		a.notify(fmt.Sprintf("Imported %d elements", len(b.Elements)))
	}, a.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (a *boardApp) exportOptions() export.Options {
	c := a.cfg.Canvas
	return export.Options{
		Width:       c.Width,
		Height:      c.Height,
		Background:  c.Background,
		JPEGQuality: c.JPEGQuality,
	}
}

func (a *boardApp) exportAs(f export.Format) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			a.fail("Export", err)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()
		if err := export.Write(w, f, a.store.Snapshot(), a.exportOptions()); err != nil {
			a.fail("Export", err)
			return
		}
		a.logger.Info("board exported", zap.String("format", string(f)), zap.String("path", w.URI().Path()))
		a.notify("Exported " + w.URI().Name())
	}, a.win)
	d.SetFileName("board" + f.Ext())
	d.Show()
}
