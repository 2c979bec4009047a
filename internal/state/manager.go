package state

import (
	"github.com/google/uuid"
	"github.com/janjanpower/text-alignment-tool/internal/document"
)

// Manager is the base contract shared by every concrete state manager.
// All mutation entry points must be called from a single writer;
// Snapshot may be called from any goroutine.
type Manager interface {
	Begin() (*Txn, error)
	Commit(h *Txn) error
	Rollback(h *Txn) error

	Replace(h *Txn, index int, e document.Entry) error
	Insert(h *Txn, index int, e document.Entry) error
	Remove(h *Txn, index int) error

	Undo() error
	Redo() error
	CanUndo() bool
	CanRedo() bool

	Subscribe(fn ObserverFunc) uuid.UUID
	Unsubscribe(id uuid.UUID)

	Snapshot() *document.Snapshot
}

var (
	_ Manager = (*Generic)(nil)
	_ Manager = (*Enhanced)(nil)
	_ Manager = (*Correction)(nil)
)
