package state

import (
	"github.com/janjanpower/text-alignment-tool/internal/document"
)

type EventKind int

const (
	EventCommit EventKind = iota
	EventUndo
	EventRedo
)

func (k EventKind) String() string {
	switch k {
	case EventCommit:
		return "commit"
	case EventUndo:
		return "undo"
	case EventRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Event describes one applied change set. First and Last bound the
// minimal contiguous range of ordinals the change touched. Observers
// receive the committed result only, never transaction internals.
type Event struct {
	Kind     EventKind
	First    int
	Last     int
	Snapshot *document.Snapshot
}

type ObserverFunc func(Event)
