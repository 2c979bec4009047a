package document

import (
	"fmt"
	"sync/atomic"
)

// Store owns the ordered entries of one open project. Mutation goes
// through Replace, which swaps in a freshly built entry slice; readers
// hold on to Snapshot values that are never written again, so reads
// never block the writer and snapshots survive later commits.
type Store struct {
	snap atomic.Pointer[Snapshot]
}

// immutable point-in-time view of the document
type Snapshot struct {
	entries []Entry
}

func NewStore(entries []Entry) (*Store, error) {
	if err := checkInvariants(entries); err != nil {
		return nil, err
	}
	s := &Store{}
	s.snap.Store(&Snapshot{entries: append([]Entry(nil), entries...)})
	return s, nil
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

func (s *Store) Len() int {
	return len(s.snap.Load().entries)
}

// Replace validates the new document and atomically swaps it in. The
// slice must not be reused by the caller afterwards.
func (s *Store) Replace(entries []Entry) error {
	if err := checkInvariants(entries); err != nil {
		return err
	}
	s.snap.Store(&Snapshot{entries: entries})
	return nil
}

func checkInvariants(entries []Entry) error {
	for i, e := range entries {
		if e.Index != i {
			return fmt.Errorf("entry at position %d has ordinal %d, want %d", i, e.Index, i)
		}
	}
	return nil
}

func (v *Snapshot) Len() int {
	return len(v.entries)
}

// At returns the entry at the given ordinal. Entries are value copies,
// so callers cannot mutate the snapshot through them.
func (v *Snapshot) At(i int) Entry {
	return v.entries[i]
}

// Entries returns a copy of all entries in ordinal order.
func (v *Snapshot) Entries() []Entry {
	return append([]Entry(nil), v.entries...)
}
