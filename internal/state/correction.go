package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/janjanpower/text-alignment-tool/internal/document"
	"github.com/janjanpower/text-alignment-tool/internal/logging"
)

// Correction layers rule application and corrected-flag bookkeeping on
// top of the enhanced manager. It holds a non-owning view of the rule
// set: rules are supplied by the caller on every operation.
type Correction struct {
	e *Enhanced

	// count of entries with IsCorrected == false, maintained on every
	// applied change set so UncorrectedCount stays O(1)
	uncorrected int

	log *logging.Logger
}

func NewCorrection(e *Enhanced, log *logging.Logger) *Correction {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Correction{e: e, log: log}
	e.g.afterApply = c.onApplied

	snap := e.Snapshot()
	for i := 0; i < snap.Len(); i++ {
		if !snap.At(i).IsCorrected {
			c.uncorrected++
		}
	}
	return c
}

// onApplied adjusts the uncorrected counter for every change set the
// generic layer applies, forward on commit/redo and inverted on undo.
func (c *Correction) onApplied(changes []Change, forward bool) {
	delta := 0
	for _, ch := range changes {
		switch ch.Kind {
		case ChangeReplace:
			delta += boolToCount(!ch.New.IsCorrected) - boolToCount(!ch.Old.IsCorrected)
		case ChangeInsert:
			delta += boolToCount(!ch.New.IsCorrected)
		case ChangeRemove:
			delta -= boolToCount(!ch.Old.IsCorrected)
		}
	}
	if !forward {
		delta = -delta
	}
	c.uncorrected += delta
}

func boolToCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ApplyRule replaces the rule's error text in every matching entry and
// marks those entries corrected, as one batch (or as part of the batch
// already open). Returns the number of entries changed. Re-applying a
// rule whose error text no longer matches is a no-op.
func (c *Correction) ApplyRule(rule document.Rule) (int, error) {
	h, err := c.e.BeginBatch()
	if err != nil {
		return 0, err
	}
	count, err := c.applyRule(h, rule)
	if err != nil {
		c.e.Rollback(h)
		return 0, err
	}
	if err := c.e.Commit(h); err != nil {
		return 0, err
	}
	return count, nil
}

// ApplyAllRules applies the rules in the given order inside one batch,
// so the whole bulk operation is a single undo step. A later rule sees
// text produced by an earlier one.
func (c *Correction) ApplyAllRules(rules []document.Rule) (int, error) {
	h, err := c.e.BeginBatch()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, rule := range rules {
		count, err := c.applyRule(h, rule)
		if err != nil {
			c.e.Rollback(h)
			return 0, err
		}
		total += count
	}
	if err := c.e.Commit(h); err != nil {
		return 0, err
	}
	c.log.Infow("applied rule set", "rules", len(rules), "entries_changed", total)
	return total, nil
}

func (c *Correction) applyRule(h *Txn, rule document.Rule) (int, error) {
	entries := c.e.g.working()
	count := 0
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		newText, matched := rule.Apply(entry.Text)
		if !matched {
			continue
		}
		entry.Text = newText
		entry.IsCorrected = true
		entry.UpdatedAt = time.Now()
		if err := c.e.Replace(h, i, entry); err != nil {
			return 0, fmt.Errorf("applying rule %q at index %d: %w", rule.ErrorText, i, err)
		}
		count++
	}
	return count, nil
}

// MarkCorrected toggles the corrected flag directly, for manual review
// workflows independent of rule application.
func (c *Correction) MarkCorrected(index int, value bool) error {
	h, err := c.e.Begin()
	if err != nil {
		return err
	}
	entries := c.e.g.working()
	if index < 0 || index >= len(entries) {
		c.e.Rollback(h)
		return fmt.Errorf("%w: index %d out of range (0-%d)", ErrValidation, index, len(entries)-1)
	}
	entry := entries[index]
	if entry.IsCorrected != value {
		entry.IsCorrected = value
		entry.UpdatedAt = time.Now()
		if err := c.e.Replace(h, index, entry); err != nil {
			c.e.Rollback(h)
			return err
		}
	}
	return c.e.Commit(h)
}

// NextUncorrected scans forward from the given index, wrapping once,
// and returns the ordinal of the next entry with IsCorrected == false.
// Feeding the result back in visits every uncorrected entry exactly
// once per full pass. Start with -1 to begin at the top.
func (c *Correction) NextUncorrected(from int) (int, bool) {
	snap := c.e.Snapshot()
	n := snap.Len()
	if n == 0 {
		return 0, false
	}
	for k := 1; k <= n; k++ {
		i := ((from+k)%n + n) % n
		if !snap.At(i).IsCorrected {
			return i, true
		}
	}
	return 0, false
}

func (c *Correction) UncorrectedCount() int { return c.uncorrected }

// base contract, delegated to the enhanced layer

func (c *Correction) Begin() (*Txn, error)      { return c.e.Begin() }
func (c *Correction) BeginBatch() (*Txn, error) { return c.e.BeginBatch() }
func (c *Correction) Commit(h *Txn) error       { return c.e.Commit(h) }
func (c *Correction) Rollback(h *Txn) error     { return c.e.Rollback(h) }

func (c *Correction) Replace(h *Txn, index int, entry document.Entry) error {
	return c.e.Replace(h, index, entry)
}

func (c *Correction) Insert(h *Txn, index int, entry document.Entry) error {
	return c.e.Insert(h, index, entry)
}

func (c *Correction) Remove(h *Txn, index int) error { return c.e.Remove(h, index) }

func (c *Correction) Undo() error   { return c.e.Undo() }
func (c *Correction) Redo() error   { return c.e.Redo() }
func (c *Correction) CanUndo() bool { return c.e.CanUndo() }
func (c *Correction) CanRedo() bool { return c.e.CanRedo() }

func (c *Correction) Subscribe(fn ObserverFunc) uuid.UUID { return c.e.Subscribe(fn) }
func (c *Correction) Unsubscribe(id uuid.UUID)            { c.e.Unsubscribe(id) }

func (c *Correction) Snapshot() *document.Snapshot { return c.e.Snapshot() }

func (c *Correction) DirtyRange() (first, last int) { return c.e.DirtyRange() }
