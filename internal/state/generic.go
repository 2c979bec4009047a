package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/janjanpower/text-alignment-tool/internal/document"
	"github.com/janjanpower/text-alignment-tool/internal/logging"
)

// Generic implements the base contract over an ordered, index-addressed
// document. It knows nothing about subtitle or correction semantics.
// One open transaction at a time; edits are staged on a working copy and
// applied to the store atomically at commit.
type Generic struct {
	store *document.Store
	hist  *history
	obs   map[uuid.UUID]ObserverFunc

	open *Txn
	work []document.Entry
	seq  uint64

	// last committed dirty range
	lastFirst int
	lastLast  int

	// set by the enhanced layer
	coalesceInTxn bool
	afterApply    func(changes []Change, forward bool)

	log *logging.Logger
}

func NewGeneric(store *document.Store, maxHistory int, log *logging.Logger) *Generic {
	if log == nil {
		log = logging.NewNop()
	}
	return &Generic{
		store:    store,
		hist:     newHistory(maxHistory),
		obs:      make(map[uuid.UUID]ObserverFunc),
		lastLast: -1,
		log:      log,
	}
}

func (g *Generic) Begin() (*Txn, error) {
	if g.open != nil {
		return nil, fmt.Errorf("%w: transaction %d is still open", ErrTransactionConflict, g.open.seq)
	}
	g.seq++
	g.open = &Txn{seq: g.seq, status: StatusOpen, startedAt: time.Now()}
	g.work = g.store.Snapshot().Entries()
	g.log.Debugw("transaction opened", "seq", g.open.seq)
	return g.open, nil
}

func (g *Generic) check(h *Txn) error {
	if h == nil {
		return fmt.Errorf("%w: nil handle", ErrStaleTransaction)
	}
	if g.open == nil {
		return fmt.Errorf("%w: no transaction open", ErrStaleTransaction)
	}
	if h != g.open {
		return fmt.Errorf("%w: handle %d, open %d", ErrStaleTransaction, h.seq, g.open.seq)
	}
	return nil
}

func (g *Generic) Replace(h *Txn, index int, e document.Entry) error {
	if err := g.check(h); err != nil {
		return err
	}
	if index < 0 || index >= len(g.work) {
		return fmt.Errorf("%w: index %d out of range (0-%d)", ErrValidation, index, len(g.work)-1)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	e.Index = index
	h.record(Change{Kind: ChangeReplace, Index: index, Old: g.work[index], New: e}, g.coalesceInTxn)
	g.work[index] = e
	return nil
}

func (g *Generic) Insert(h *Txn, index int, e document.Entry) error {
	if err := g.check(h); err != nil {
		return err
	}
	if index < 0 || index > len(g.work) {
		return fmt.Errorf("%w: insert index %d out of range (0-%d)", ErrValidation, index, len(g.work))
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	e.Index = index
	h.record(Change{Kind: ChangeInsert, Index: index, New: e}, false)
	g.work = insertAt(g.work, index, e)
	return nil
}

func (g *Generic) Remove(h *Txn, index int) error {
	if err := g.check(h); err != nil {
		return err
	}
	if index < 0 || index >= len(g.work) {
		return fmt.Errorf("%w: remove index %d out of range (0-%d)", ErrValidation, index, len(g.work)-1)
	}
	h.record(Change{Kind: ChangeRemove, Index: index, Old: g.work[index]}, false)
	g.work = removeAt(g.work, index)
	return nil
}

func (g *Generic) Commit(h *Txn) error {
	return g.commit(h, nil)
}

// commit applies the staged document, records the transaction and
// notifies observers. The optional merge hook lets the enhanced layer
// fold a commit into the previous undo entry.
func (g *Generic) commit(h *Txn, merge func(prev, cur *Txn) bool) error {
	if err := g.check(h); err != nil {
		return err
	}

	work := g.work
	g.open = nil
	g.work = nil

	if !h.effective() {
		// no observable change; committed without an undo entry
		h.status = StatusCommitted
		g.log.Debugw("transaction committed empty", "seq", h.seq)
		return nil
	}

	oldLen := g.store.Len()
	if err := g.store.Replace(work); err != nil {
		h.status = StatusRolledBack
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	h.status = StatusCommitted
	h.committedAt = time.Now()

	merged := false
	if merge != nil {
		if prev, ok := g.hist.peekUndo(); ok {
			merged = merge(prev, h)
		}
	}
	if merged {
		g.hist.clearRedo()
	} else {
		g.hist.push(h)
	}

	if g.afterApply != nil {
		g.afterApply(h.changes, true)
	}

	first, last := dirtyRange(h.changes, oldLen, g.store.Len())
	g.lastFirst, g.lastLast = first, last
	g.log.Debugw("transaction committed",
		"seq", h.seq,
		"changes", len(h.changes),
		"dirty_first", first,
		"dirty_last", last,
		"merged", merged,
	)
	g.notify(Event{Kind: EventCommit, First: first, Last: last, Snapshot: g.store.Snapshot()})
	return nil
}

func (g *Generic) Rollback(h *Txn) error {
	if err := g.check(h); err != nil {
		return err
	}
	h.status = StatusRolledBack
	g.open = nil
	g.work = nil
	g.log.Debugw("transaction rolled back", "seq", h.seq, "changes", len(h.changes))
	return nil
}

func (g *Generic) Undo() error {
	if g.open != nil {
		return fmt.Errorf("%w: cannot undo while transaction %d is open", ErrTransactionConflict, g.open.seq)
	}
	t, ok := g.hist.popUndo()
	if !ok {
		return ErrNothingToUndo
	}

	oldLen := g.store.Len()
	entries := invertChanges(g.store.Snapshot().Entries(), t.changes)
	if err := g.store.Replace(entries); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	g.hist.moveToRedo(t)

	if g.afterApply != nil {
		g.afterApply(t.changes, false)
	}

	first, last := dirtyRange(t.changes, oldLen, g.store.Len())
	g.lastFirst, g.lastLast = first, last
	g.log.Debugw("undo applied", "seq", t.seq)
	g.notify(Event{Kind: EventUndo, First: first, Last: last, Snapshot: g.store.Snapshot()})
	return nil
}

func (g *Generic) Redo() error {
	if g.open != nil {
		return fmt.Errorf("%w: cannot redo while transaction %d is open", ErrTransactionConflict, g.open.seq)
	}
	t, ok := g.hist.popRedo()
	if !ok {
		return ErrNothingToRedo
	}

	oldLen := g.store.Len()
	entries := applyChanges(g.store.Snapshot().Entries(), t.changes)
	if err := g.store.Replace(entries); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	g.hist.moveToUndo(t)

	if g.afterApply != nil {
		g.afterApply(t.changes, true)
	}

	first, last := dirtyRange(t.changes, oldLen, g.store.Len())
	g.lastFirst, g.lastLast = first, last
	g.log.Debugw("redo applied", "seq", t.seq)
	g.notify(Event{Kind: EventRedo, First: first, Last: last, Snapshot: g.store.Snapshot()})
	return nil
}

func (g *Generic) CanUndo() bool { return g.hist.canUndo() }
func (g *Generic) CanRedo() bool { return g.hist.canRedo() }

// UndoLen reports the undo history depth, mostly for tests and status
// displays.
func (g *Generic) UndoLen() int { return g.hist.undoLen() }
func (g *Generic) RedoLen() int { return g.hist.redoLen() }

func (g *Generic) Subscribe(fn ObserverFunc) uuid.UUID {
	id := uuid.New()
	g.obs[id] = fn
	return id
}

func (g *Generic) Unsubscribe(id uuid.UUID) {
	delete(g.obs, id)
}

func (g *Generic) Snapshot() *document.Snapshot {
	return g.store.Snapshot()
}

// working exposes the staged entries during an open transaction so the
// correction layer can scan text produced by earlier edits in the same
// batch. Callers must not retain the slice.
func (g *Generic) working() []document.Entry {
	if g.open != nil {
		return g.work
	}
	return g.store.Snapshot().Entries()
}

func (g *Generic) notify(ev Event) {
	for _, fn := range g.obs {
		fn(ev)
	}
}
