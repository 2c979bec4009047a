package state

import (
	"errors"
	"testing"
	"time"

	"github.com/janjanpower/text-alignment-tool/internal/document"
)

func testEntry(i int, text string) document.Entry {
	start := time.Duration(i) * 2 * time.Second
	return document.Entry{
		Index:     i,
		StartTime: document.FormatTimeCode(start),
		EndTime:   document.FormatTimeCode(start + time.Second),
		Text:      text,
	}
}

func testEntries(texts ...string) []document.Entry {
	entries := make([]document.Entry, len(texts))
	for i, text := range texts {
		entries[i] = testEntry(i, text)
	}
	return entries
}

func newTestGeneric(t *testing.T, texts ...string) *Generic {
	t.Helper()
	store, err := document.NewStore(testEntries(texts...))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewGeneric(store, 0, nil)
}

func documentTexts(snap *document.Snapshot) []string {
	texts := make([]string, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		texts[i] = snap.At(i).Text
	}
	return texts
}

func checkTexts(t *testing.T, snap *document.Snapshot, want ...string) {
	t.Helper()
	got := documentTexts(snap)
	if len(got) != len(want) {
		t.Fatalf("document has %d entries %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d text = %q, want %q", i, got[i], want[i])
		}
	}
}

func checkOrdinals(t *testing.T, snap *document.Snapshot) {
	t.Helper()
	for i := 0; i < snap.Len(); i++ {
		if snap.At(i).Index != i {
			t.Errorf("entry at position %d has ordinal %d", i, snap.At(i).Index)
		}
	}
}

func TestBeginRejectsSecondTransaction(t *testing.T) {
	g := newTestGeneric(t, "a")

	h, err := g.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := g.Begin(); !errors.Is(err, ErrTransactionConflict) {
		t.Errorf("second Begin = %v, want ErrTransactionConflict", err)
	}
	if err := g.Rollback(h); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if _, err := g.Begin(); err != nil {
		t.Errorf("Begin after rollback failed: %v", err)
	}
}

func TestStaleHandleRejected(t *testing.T) {
	g := newTestGeneric(t, "a")

	if err := g.Commit(&Txn{}); !errors.Is(err, ErrStaleTransaction) {
		t.Errorf("Commit with foreign handle = %v, want ErrStaleTransaction", err)
	}

	h, _ := g.Begin()
	if err := g.Commit(&Txn{}); !errors.Is(err, ErrStaleTransaction) {
		t.Errorf("Commit with wrong handle = %v, want ErrStaleTransaction", err)
	}
	if err := g.Rollback(h); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := g.Commit(h); !errors.Is(err, ErrStaleTransaction) {
		t.Errorf("Commit after rollback = %v, want ErrStaleTransaction", err)
	}
}

func TestCommitUndoRedoRestoresExactState(t *testing.T) {
	g := newTestGeneric(t, "one", "two")
	before := g.Snapshot().Entries()

	h, _ := g.Begin()
	edited := testEntry(1, "TWO")
	edited.WordText = "word level"
	edited.IsCorrected = true
	if err := g.Replace(h, 1, edited); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	after := g.Snapshot().Entries()

	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	for i, e := range g.Snapshot().Entries() {
		if e != before[i] {
			t.Errorf("after undo entry %d = %+v, want %+v", i, e, before[i])
		}
	}

	if err := g.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	for i, e := range g.Snapshot().Entries() {
		if e != after[i] {
			t.Errorf("after redo entry %d = %+v, want %+v", i, e, after[i])
		}
	}
}

func TestRollbackLeavesDocumentUntouched(t *testing.T) {
	g := newTestGeneric(t, "a", "b")

	h, _ := g.Begin()
	if err := g.Replace(h, 0, testEntry(0, "changed")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := g.Remove(h, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := g.Rollback(h); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	checkTexts(t, g.Snapshot(), "a", "b")
	if g.CanUndo() {
		t.Error("rolled back transaction must not enter the undo history")
	}
}

func TestEmptyHistoryErrors(t *testing.T) {
	g := newTestGeneric(t, "a")

	if err := g.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo = %v, want ErrNothingToUndo", err)
	}
	if err := g.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo = %v, want ErrNothingToRedo", err)
	}
}

func TestCommitClearsRedoHistory(t *testing.T) {
	g := newTestGeneric(t, "a")

	for _, text := range []string{"b", "c"} {
		h, _ := g.Begin()
		if err := g.Replace(h, 0, testEntry(0, text)); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if err := g.Commit(h); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !g.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	h, _ := g.Begin()
	g.Replace(h, 0, testEntry(0, "d"))
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if g.CanRedo() {
		t.Error("commit must clear the redo history")
	}
	if err := g.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo = %v, want ErrNothingToRedo", err)
	}
}

func TestInsertRemoveKeepOrdinalsContiguous(t *testing.T) {
	g := newTestGeneric(t, "a", "b", "c")

	h, _ := g.Begin()
	if err := g.Insert(h, 1, testEntry(0, "x")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	checkTexts(t, g.Snapshot(), "a", "x", "b", "c")
	checkOrdinals(t, g.Snapshot())

	h, _ = g.Begin()
	if err := g.Remove(h, 0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := g.Remove(h, 2); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	checkTexts(t, g.Snapshot(), "x", "b")
	checkOrdinals(t, g.Snapshot())

	// renumbering is part of the diff: undo restores the exact layout
	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	checkTexts(t, g.Snapshot(), "a", "x", "b", "c")
	checkOrdinals(t, g.Snapshot())

	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	checkTexts(t, g.Snapshot(), "a", "b", "c")
	checkOrdinals(t, g.Snapshot())

	if err := g.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if err := g.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	checkTexts(t, g.Snapshot(), "x", "b")
	checkOrdinals(t, g.Snapshot())
}

func TestRemoveToEmptyAndUndo(t *testing.T) {
	g := newTestGeneric(t, "only")

	h, _ := g.Begin()
	if err := g.Remove(h, 0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if g.Snapshot().Len() != 0 {
		t.Fatalf("expected empty document, got %d entries", g.Snapshot().Len())
	}

	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	checkTexts(t, g.Snapshot(), "only")
}

func TestValidationRejectedBeforeStateChanges(t *testing.T) {
	g := newTestGeneric(t, "a")

	h, _ := g.Begin()
	bad := document.Entry{StartTime: "00:00:05,000", EndTime: "00:00:01,000", Text: "bad"}
	if err := g.Replace(h, 0, bad); !errors.Is(err, ErrValidation) {
		t.Errorf("Replace with inverted times = %v, want ErrValidation", err)
	}
	if err := g.Replace(h, 5, testEntry(5, "x")); !errors.Is(err, ErrValidation) {
		t.Errorf("Replace out of range = %v, want ErrValidation", err)
	}
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// nothing was recorded, so nothing changed and nothing is undoable
	checkTexts(t, g.Snapshot(), "a")
	if g.CanUndo() {
		t.Error("rejected edits must not create an undo entry")
	}
}

func TestNoopCommitCreatesNoUndoEntry(t *testing.T) {
	g := newTestGeneric(t, "same")

	h, _ := g.Begin()
	if err := g.Replace(h, 0, g.Snapshot().At(0)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if g.CanUndo() {
		t.Error("identical replacement must not create an undo entry")
	}
}

func TestObserversReceiveEventsInOrder(t *testing.T) {
	g := newTestGeneric(t, "a", "b", "c")

	var events []Event
	id := g.Subscribe(func(ev Event) { events = append(events, ev) })

	h, _ := g.Begin()
	g.Replace(h, 1, testEntry(1, "B"))
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := g.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}

	wantKinds := []EventKind{EventCommit, EventUndo, EventRedo}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d", len(events), len(wantKinds))
	}
	for i, ev := range events {
		if ev.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %s, want %s", i, ev.Kind, wantKinds[i])
		}
		if ev.First != 1 || ev.Last != 1 {
			t.Errorf("event %d range = (%d,%d), want (1,1)", i, ev.First, ev.Last)
		}
		if ev.Snapshot == nil {
			t.Errorf("event %d missing snapshot", i)
		}
	}

	g.Unsubscribe(id)
	h, _ = g.Begin()
	g.Replace(h, 0, testEntry(0, "A"))
	if err := g.Commit(h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(events) != len(wantKinds) {
		t.Error("unsubscribed observer still received events")
	}
}

func TestUndoDuringOpenTransactionRejected(t *testing.T) {
	g := newTestGeneric(t, "a")

	for _, text := range []string{"b"} {
		h, _ := g.Begin()
		g.Replace(h, 0, testEntry(0, text))
		if err := g.Commit(h); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	h, _ := g.Begin()
	if err := g.Undo(); !errors.Is(err, ErrTransactionConflict) {
		t.Errorf("Undo with open transaction = %v, want ErrTransactionConflict", err)
	}
	if err := g.Redo(); !errors.Is(err, ErrTransactionConflict) {
		t.Errorf("Redo with open transaction = %v, want ErrTransactionConflict", err)
	}
	g.Rollback(h)
}

func TestHistoryBoundDropsOldest(t *testing.T) {
	store, err := document.NewStore(testEntries("start"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	g := NewGeneric(store, 2, nil)

	for _, text := range []string{"one", "two", "three"} {
		h, _ := g.Begin()
		g.Replace(h, 0, testEntry(0, text))
		if err := g.Commit(h); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	if err := g.Undo(); err != nil {
		t.Fatalf("first Undo: %v", err)
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("second Undo: %v", err)
	}
	if err := g.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("third Undo = %v, want ErrNothingToUndo (history bounded at 2)", err)
	}
	checkTexts(t, g.Snapshot(), "one")
}
