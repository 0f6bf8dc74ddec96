package state

// history holds the past and future snapshot stacks.
//
// Elements stored in a Store are never modified in place: updates replace the
// slice entry and readers get clones. A snapshot therefore only copies the
// slice of element pointers and shares the elements themselves with the live
// board and with the other snapshots.
type history struct {
	past   []BoardState
	future []BoardState
	limit  int
}

func (h *history) push(b BoardState) {
	h.past = append(h.past, b)
	if h.limit > 0 && len(h.past) > h.limit {
		drop := len(h.past) - h.limit
		clear(h.past[:drop])
		h.past = h.past[drop:]
	}
	h.dropFuture()
}

func (h *history) dropFuture() {
	clear(h.future)
	h.future = h.future[:0]
}

func (h *history) pop() bool {
	if len(h.past) == 0 {
		return false
	}
	h.past[len(h.past)-1] = BoardState{}
	h.past = h.past[:len(h.past)-1]
	return true
}

// undo swaps cur with the most recent past snapshot.
func (h *history) undo(cur BoardState) (BoardState, bool) {
	if len(h.past) == 0 {
		return cur, false
	}
	prev := h.past[len(h.past)-1]
	h.past[len(h.past)-1] = BoardState{}
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, cur)
	return prev, true
}

// redo swaps cur with the most recent future snapshot.
func (h *history) redo(cur BoardState) (BoardState, bool) {
	if len(h.future) == 0 {
		return cur, false
	}
	next := h.future[len(h.future)-1]
	h.future[len(h.future)-1] = BoardState{}
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, cur)
	return next, true
}

func (h *history) reset() {
	h.past = nil
	h.future = nil
}

// snapshot copies the element slice. See the note on history about sharing.
func snapshot(elements []Element, cam Camera) BoardState {
	return BoardState{Elements: append([]Element(nil), elements...), Camera: cam}
}
