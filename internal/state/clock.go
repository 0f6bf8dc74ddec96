package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// OpType names the kind of change a Store committed.
type OpType string

const (
	OpAddElement    OpType = "add_element"
	OpUpdateElement OpType = "update_element"
	OpRemoveElement OpType = "remove_element"
	OpReorder       OpType = "reorder"
	OpSelect        OpType = "select"
	OpCamera        OpType = "camera"
	OpPushHistory   OpType = "push_history"
	OpUndo          OpType = "undo"
	OpRedo          OpType = "redo"
	OpRestore       OpType = "restore"
	OpClear         OpType = "clear"
	OpShareLink     OpType = "share_link"
)

// Change is emitted after every committed mutation.
type Change struct {
	Revision  uint64
	Type      OpType
	ElementID string
}

// revisionClock is a monotonically increasing counter stamped on each Change.
type revisionClock struct {
	n atomic.Uint64
}

func (c *revisionClock) tick() uint64 { return c.n.Add(1) }

func (c *revisionClock) now() uint64 { return c.n.Load() }

// NewElementID returns a fresh identifier for an element.
func NewElementID() string {
	return uuid.NewString()
}

func newRoomID() string {
	return uuid.NewString()
}
