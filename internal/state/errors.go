package state

import "errors"

var (
	// rejected before any state changes
	ErrValidation = errors.New("validation failed")

	// a mutation was attempted while another transaction is open
	ErrTransactionConflict = errors.New("transaction already open")

	// commit or rollback called with a handle that is not the open one
	ErrStaleTransaction = errors.New("stale transaction handle")

	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)
