package state

import (
	"net/url"
	"sync"

	"localboard/internal/localstore"

	"go.uber.org/zap"
)

// DefaultSlot is the storage slot SaveToLocal and LoadFromLocal use unless
// WithStorage names another.
const DefaultSlot = "localboard"

// ImageDefaults controls where uploaded images land and how big they get.
type ImageDefaults struct {
	X, Y           float64
	MaxWidth       float64
	MaxHeight      float64
	FallbackWidth  float64
	FallbackHeight float64
}

// DefaultImageDefaults places uploads at (100,100), capped at 400x300.
func DefaultImageDefaults() ImageDefaults {
	return ImageDefaults{
		X: 100, Y: 100,
		MaxWidth: 400, MaxHeight: 300,
		FallbackWidth: 200, FallbackHeight: 150,
	}
}

// Store is the single source of truth for the board: elements in z-order, the
// camera, the current selection and the undo/redo history.
//
// Callers own a *Store and pass it around explicitly. Every method is safe for
// concurrent use. Mutations do not snapshot on their own; call PushHistory
// right before a mutation that should be undoable.
type Store struct {
	mu       sync.RWMutex
	elements []Element
	camera   Camera
	selected string
	history  history

	clock    revisionClock
	onChange func(Change)

	storage  localstore.Storage
	slot     string
	location *url.URL
	images   ImageDefaults
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage sets the backend and slot used by SaveToLocal/LoadFromLocal.
func WithStorage(st localstore.Storage, slot string) Option {
	return func(s *Store) {
		s.storage = st
		if slot != "" {
			s.slot = slot
		}
	}
}

// WithLocation sets the URL MakeShareLink derives the link from.
func WithLocation(u *url.URL) Option {
	return func(s *Store) {
		if u != nil {
			c := *u
			s.location = &c
		}
	}
}

// WithHistoryLimit bounds the undo stack. Zero keeps every snapshot.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.history.limit = n
		}
	}
}

// WithImageDefaults overrides placement and sizing of uploaded images.
func WithImageDefaults(d ImageDefaults) Option {
	return func(s *Store) { s.images = d }
}

// NewStore returns an empty board with the default camera.
func NewStore(opts ...Option) *Store {
	s := &Store{
		camera:   DefaultCamera(),
		slot:     DefaultSlot,
		location: &url.URL{Scheme: "localboard", Host: "localhost", Path: "/"},
		images:   DefaultImageDefaults(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOnChange registers fn to run after each committed mutation. fn is called
// without the store lock held, on the goroutine that made the change.
func (s *Store) SetOnChange(fn func(Change)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// commit stamps a change. Must be called with mu held; the returned func
// delivers it and must be called after mu is released.
func (s *Store) commit(op OpType, id string) func() {
	c := Change{Revision: s.clock.tick(), Type: op, ElementID: id}
	fn := s.onChange
	return func() {
		if fn != nil {
			fn(c)
		}
	}
}

// Revision is the number of changes committed so far.
func (s *Store) Revision() uint64 {
	return s.clock.now()
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.elements {
		if e.Header().ID == id {
			return i
		}
	}
	return -1
}

// AddElement appends e on top of the z-order. The store keeps its own copy.
// Identifiers are not checked for uniqueness.
func (s *Store) AddElement(e Element) {
	if e == nil {
		return
	}
	e = e.Clone()

	s.mu.Lock()
	s.elements = append(s.elements, e)
	s.history.dropFuture()
	notify := s.commit(OpAddElement, e.Header().ID)
	s.mu.Unlock()

	s.logger.Debug("element added", zap.String("element_id", e.Header().ID), zap.String("kind", string(e.Kind())))
	notify()
}

// UpdateElement replaces the element with the given id in place, keeping its
// z-order position and id. It reports false if no element has that id.
func (s *Store) UpdateElement(id string, e Element) bool {
	if e == nil {
		return false
	}
	e = e.Clone()
	e.Header().ID = id

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.elements[i] = e
	s.history.dropFuture()
	notify := s.commit(OpUpdateElement, id)
	s.mu.Unlock()

	notify()
	return true
}

// RemoveElement deletes the element with the given id, clearing the selection
// if it pointed at it.
func (s *Store) RemoveElement(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.elements = append(s.elements[:i:i], s.elements[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.history.dropFuture()
	notify := s.commit(OpRemoveElement, id)
	s.mu.Unlock()

	s.logger.Debug("element removed", zap.String("element_id", id))
	notify()
	return true
}

// SelectElement sets the single selection. An empty id clears it; an unknown
// id leaves the selection unchanged and reports false.
func (s *Store) SelectElement(id string) bool {
	s.mu.Lock()
	if id != "" && s.indexOf(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.selected = id
	notify := s.commit(OpSelect, id)
	s.mu.Unlock()

	notify()
	return true
}

// Selected returns the selected element id, or "".
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// BringForward swaps the element with the one directly above it.
func (s *Store) BringForward(id string) bool {
	return s.swap(id, 1)
}

// SendBackward swaps the element with the one directly below it.
func (s *Store) SendBackward(id string) bool {
	return s.swap(id, -1)
}

func (s *Store) swap(id string, step int) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	j := i + step
	if i < 0 || j < 0 || j >= len(s.elements) {
		s.mu.Unlock()
		return false
	}
	s.elements[i], s.elements[j] = s.elements[j], s.elements[i]
	s.history.dropFuture()
	notify := s.commit(OpReorder, id)
	s.mu.Unlock()

	notify()
	return true
}

// Clear removes every element.
func (s *Store) Clear() {
	s.mu.Lock()
	s.elements = nil
	s.selected = ""
	s.history.dropFuture()
	notify := s.commit(OpClear, "")
	s.mu.Unlock()

	notify()
}

// Elements returns a copy of the element list in z-order.
func (s *Store) Elements() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.Clone()
	}
	return out
}

// Element returns a copy of the element with the given id.
func (s *Store) Element(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.elements[i].Clone(), true
}

// Len is the number of elements on the board.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// Snapshot returns a deep copy of the current board.
func (s *Store) Snapshot() BoardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BoardState{Elements: s.elements, Camera: s.camera}.Clone()
}

// Restore replaces elements and camera with b. History is left alone so the
// caller decides whether the replacement is undoable.
func (s *Store) Restore(b BoardState) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b = b.Clone()
	b.Camera.Zoom = clampZoom(b.Camera.Zoom)

	s.mu.Lock()
	s.setBoard(b)
	s.history.dropFuture()
	notify := s.commit(OpRestore, "")
	s.mu.Unlock()

	s.logger.Debug("board restored", zap.Int("elements", len(b.Elements)))
	notify()
	return nil
}

// setBoard installs b as the current state. Must be called with mu held.
func (s *Store) setBoard(b BoardState) {
	s.elements = b.Elements
	s.camera = b.Camera
	if s.selected != "" && s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
}

// HitTest returns the id of the topmost element whose bounds contain the world
// point p, widened by tolerance.
func (s *Store) HitTest(p Point, tolerance float64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.elements) - 1; i >= 0; i-- {
		if Bounds(s.elements[i]).Inset(tolerance).Contains(p) {
			return s.elements[i].Header().ID, true
		}
	}
	return "", false
}

// PushHistory records the current elements and camera as an undo checkpoint
// and forgets anything that could have been redone.
func (s *Store) PushHistory() {
	s.mu.Lock()
	s.history.push(snapshot(s.elements, s.camera))
	notify := s.commit(OpPushHistory, "")
	depth := len(s.history.past)
	s.mu.Unlock()

	s.logger.Debug("history pushed", zap.Int("depth", depth))
	notify()
}

// DiscardCheckpoint forgets the most recent checkpoint without restoring it,
// for when the mutation it was pushed for did not happen.
func (s *Store) DiscardCheckpoint() bool {
	s.mu.Lock()
	ok := s.history.pop()
	s.mu.Unlock()
	return ok
}

// Undo restores the most recent checkpoint. It reports false when there is
// nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	prev, ok := s.history.undo(BoardState{Elements: s.elements, Camera: s.camera})
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.setBoard(prev)
	notify := s.commit(OpUndo, "")
	s.mu.Unlock()

	notify()
	return true
}

// Redo reverses the most recent Undo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	next, ok := s.history.redo(BoardState{Elements: s.elements, Camera: s.camera})
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.setBoard(next)
	notify := s.commit(OpRedo, "")
	s.mu.Unlock()

	notify()
	return true
}

// CanUndo reports whether Undo would do anything.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history.past) > 0
}

// CanRedo reports whether Redo would do anything.
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history.future) > 0
}

// ResetHistory drops both history stacks.
func (s *Store) ResetHistory() {
	s.mu.Lock()
	s.history.reset()
	s.mu.Unlock()
}
