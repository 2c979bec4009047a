package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/janjanpower/text-alignment-tool/internal/document"
	"github.com/janjanpower/text-alignment-tool/internal/logging"
)

// DefaultCoalesceWindow merges successive single-entry edits committed
// within this interval into one undo step.
const DefaultCoalesceWindow = 2 * time.Second

// Enhanced wraps Generic with batched transactions, coalescing of rapid
// successive edits and dirty-range reporting. It is composition, not
// inheritance: the generic manager stays independently usable.
type Enhanced struct {
	g *Generic

	batch     *Txn
	foldDepth int

	// commits to the same single index within this window collapse
	// into the previous undo entry; zero disables the merge
	window time.Duration

	log *logging.Logger
}

func NewEnhanced(g *Generic, coalesceWindow time.Duration, log *logging.Logger) *Enhanced {
	if log == nil {
		log = logging.NewNop()
	}
	g.coalesceInTxn = true
	return &Enhanced{g: g, window: coalesceWindow, log: log}
}

// Begin opens a transaction, or folds into the open batch instead of
// rejecting when one is active. Every Begin must still be paired with a
// Commit; the batch commits for real only when the pairs balance.
func (e *Enhanced) Begin() (*Txn, error) {
	if e.batch != nil {
		e.foldDepth++
		return e.batch, nil
	}
	return e.g.Begin()
}

// BeginBatch opens a transaction whose edits commit as a single undo
// step. Calling it while a batch is already open extends that batch.
func (e *Enhanced) BeginBatch() (*Txn, error) {
	if e.batch != nil {
		e.foldDepth++
		return e.batch, nil
	}
	t, err := e.g.Begin()
	if err != nil {
		return nil, err
	}
	t.batch = true
	e.batch = t
	return t, nil
}

// InBatch reports whether a batch transaction is currently open.
func (e *Enhanced) InBatch() bool { return e.batch != nil }

func (e *Enhanced) Commit(h *Txn) error {
	if e.batch != nil && h == e.batch && e.foldDepth > 0 {
		e.foldDepth--
		return nil
	}
	if e.batch != nil && h == e.batch {
		e.batch = nil
	}
	return e.g.commit(h, e.tryMerge)
}

// Rollback discards the open transaction. Rolling back a folded handle
// discards the whole batch: a partial rollback of merged edits is not
// representable.
func (e *Enhanced) Rollback(h *Txn) error {
	if e.batch != nil && h == e.batch {
		e.batch = nil
		e.foldDepth = 0
	}
	return e.g.Rollback(h)
}

func (e *Enhanced) Replace(h *Txn, index int, entry document.Entry) error {
	return e.g.Replace(h, index, entry)
}

func (e *Enhanced) Insert(h *Txn, index int, entry document.Entry) error {
	return e.g.Insert(h, index, entry)
}

func (e *Enhanced) Remove(h *Txn, index int) error {
	return e.g.Remove(h, index)
}

func (e *Enhanced) Undo() error   { return e.g.Undo() }
func (e *Enhanced) Redo() error   { return e.g.Redo() }
func (e *Enhanced) CanUndo() bool { return e.g.CanUndo() }
func (e *Enhanced) CanRedo() bool { return e.g.CanRedo() }
func (e *Enhanced) UndoLen() int  { return e.g.UndoLen() }
func (e *Enhanced) RedoLen() int  { return e.g.RedoLen() }

func (e *Enhanced) Subscribe(fn ObserverFunc) uuid.UUID { return e.g.Subscribe(fn) }
func (e *Enhanced) Unsubscribe(id uuid.UUID)            { e.g.Unsubscribe(id) }

func (e *Enhanced) Snapshot() *document.Snapshot { return e.g.Snapshot() }

// DirtyRange returns the contiguous ordinal range touched by the most
// recent commit, undo or redo. Last is -1 before any change.
func (e *Enhanced) DirtyRange() (first, last int) {
	return e.g.lastFirst, e.g.lastLast
}

// tryMerge folds a commit into the previous undo entry when both are
// plain single-entry edits of the same index and the commits landed
// within the coalescing window. Batches never merge.
func (e *Enhanced) tryMerge(prev, cur *Txn) bool {
	if e.window <= 0 || prev.batch || cur.batch {
		return false
	}
	if len(prev.changes) != 1 || len(cur.changes) != 1 {
		return false
	}
	pc, cc := prev.changes[0], cur.changes[0]
	if pc.Kind != ChangeReplace || cc.Kind != ChangeReplace || pc.Index != cc.Index {
		return false
	}
	if cur.committedAt.Sub(prev.committedAt) > e.window {
		return false
	}
	prev.changes[0].New = cc.New
	prev.committedAt = cur.committedAt
	e.log.Debugw("commit coalesced into previous edit", "index", cc.Index, "prev_seq", prev.seq, "seq", cur.seq)
	return true
}
