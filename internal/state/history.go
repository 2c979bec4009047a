package state

// DefaultMaxHistory bounds the undo stack when no limit is configured.
const DefaultMaxHistory = 50

// bounded undo/redo stacks of committed transactions. Pushing a new
// transaction clears the redo stack; the oldest entry is dropped when
// the bound is exceeded.
type history struct {
	undo []*Txn
	redo []*Txn
	max  int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &history{max: max}
}

func (h *history) push(t *Txn) {
	h.undo = append(h.undo, t)
	if len(h.undo) > h.max {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

func (h *history) clearRedo() {
	h.redo = nil
}

func (h *history) popUndo() (*Txn, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	t := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return t, true
}

func (h *history) popRedo() (*Txn, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	t := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return t, true
}

// moveToRedo parks an undone transaction for redo.
func (h *history) moveToRedo(t *Txn) {
	h.redo = append(h.redo, t)
}

// moveToUndo returns a redone transaction to the undo stack without
// clearing the remaining redo history.
func (h *history) moveToUndo(t *Txn) {
	h.undo = append(h.undo, t)
	if len(h.undo) > h.max {
		h.undo = h.undo[1:]
	}
}

func (h *history) peekUndo() (*Txn, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	return h.undo[len(h.undo)-1], true
}

func (h *history) canUndo() bool { return len(h.undo) > 0 }
func (h *history) canRedo() bool { return len(h.redo) > 0 }
func (h *history) undoLen() int  { return len(h.undo) }
func (h *history) redoLen() int  { return len(h.redo) }
