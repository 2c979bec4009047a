package state

import (
	"math"
	"time"

	"github.com/janjanpower/text-alignment-tool/internal/document"
)

type ChangeKind int

const (
	ChangeReplace ChangeKind = iota
	ChangeInsert
	ChangeRemove
)

// Change is one recorded diff: a value pair, never a live reference
// into the document. Old is valid for replace and remove, New for
// replace and insert.
type Change struct {
	Kind  ChangeKind
	Index int
	Old   document.Entry
	New   document.Entry
}

type Status int

const (
	StatusOpen Status = iota
	StatusCommitted
	StatusRolledBack
)

// Txn is the handle for one serialized unit of document mutation.
type Txn struct {
	seq         uint64
	status      Status
	batch       bool
	changes     []Change
	replaceAt   map[int]int
	startedAt   time.Time
	committedAt time.Time
}

func (t *Txn) Seq() uint64    { return t.seq }
func (t *Txn) Status() Status { return t.status }

// record appends a change. With coalesce set, repeated replaces of the
// same index merge into one diff entry keeping the earliest old value
// and the latest new value. Structural changes shift ordinals, so they
// end any pending merges.
func (t *Txn) record(c Change, coalesce bool) {
	if c.Kind == ChangeReplace {
		if coalesce {
			if pos, ok := t.replaceAt[c.Index]; ok {
				t.changes[pos].New = c.New
				return
			}
		}
		t.changes = append(t.changes, c)
		if t.replaceAt == nil {
			t.replaceAt = make(map[int]int)
		}
		t.replaceAt[c.Index] = len(t.changes) - 1
		return
	}

	t.changes = append(t.changes, c)
	t.replaceAt = nil
}

// effective reports whether the transaction changes the document at all.
func (t *Txn) effective() bool {
	for _, c := range t.changes {
		if c.Kind != ChangeReplace {
			return true
		}
		if c.Old != c.New {
			return true
		}
	}
	return false
}

// applyChanges replays the diff forward over a working slice. Inserts
// and removes renumber every following ordinal as part of the applied
// diff, so undo restores the exact prior numbering.
func applyChanges(entries []document.Entry, changes []Change) []document.Entry {
	for _, c := range changes {
		switch c.Kind {
		case ChangeReplace:
			entries[c.Index] = c.New
		case ChangeInsert:
			entries = insertAt(entries, c.Index, c.New)
		case ChangeRemove:
			entries = removeAt(entries, c.Index)
		}
	}
	return entries
}

// invertChanges walks the diff backwards, undoing each change.
func invertChanges(entries []document.Entry, changes []Change) []document.Entry {
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		switch c.Kind {
		case ChangeReplace:
			entries[c.Index] = c.Old
		case ChangeInsert:
			entries = removeAt(entries, c.Index)
		case ChangeRemove:
			entries = insertAt(entries, c.Index, c.Old)
		}
	}
	return entries
}

func insertAt(entries []document.Entry, i int, e document.Entry) []document.Entry {
	entries = append(entries, document.Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	renumber(entries, i)
	return entries
}

func removeAt(entries []document.Entry, i int) []document.Entry {
	entries = append(entries[:i], entries[i+1:]...)
	renumber(entries, i)
	return entries
}

func renumber(entries []document.Entry, from int) {
	for i := from; i < len(entries); i++ {
		entries[i].Index = i
	}
}

// dirtyRange computes the minimal contiguous ordinal range touched by
// the diff. A structural change dirties everything from its position to
// the end of the larger of the two document lengths.
func dirtyRange(changes []Change, oldLen, newLen int) (int, int) {
	first := math.MaxInt
	last := -1
	for _, c := range changes {
		switch c.Kind {
		case ChangeReplace:
			if c.Index < first {
				first = c.Index
			}
			if c.Index > last {
				last = c.Index
			}
		case ChangeInsert, ChangeRemove:
			if c.Index < first {
				first = c.Index
			}
			end := oldLen
			if newLen > oldLen {
				end = newLen
			}
			if end-1 > last {
				last = end - 1
			}
		}
	}
	if last < first {
		return 0, -1
	}
	return first, last
}
