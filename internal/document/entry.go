package document

import (
	"fmt"
	"strings"
	"time"
)

// single time-coded subtitle entry
type Entry struct {
	ID          int64
	Index       int
	StartTime   TimeCode
	EndTime     TimeCode
	Text        string
	WordText    string
	IsCorrected bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProjectID   int64
}

// root aggregate owning entries and correction rules
type Project struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	OwnerID   int64
}

// error/replacement text pair, project scoped
type Rule struct {
	ID             int64
	ErrorText      string
	CorrectionText string
	CreatedAt      time.Time
	ProjectID      int64
}

// Apply replaces every occurrence of the rule's error text. The second
// return reports whether the text matched at all.
func (r Rule) Apply(text string) (string, bool) {
	if r.ErrorText == "" || !strings.Contains(text, r.ErrorText) {
		return text, false
	}
	return strings.ReplaceAll(text, r.ErrorText, r.CorrectionText), true
}

// Validate checks the entry's time codes. Ordinal invariants are checked
// by the store, which sees the whole document.
func (e Entry) Validate() error {
	start, err := e.StartTime.Duration()
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := e.EndTime.Duration()
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start time %s is not before end time %s", e.StartTime, e.EndTime)
	}
	return nil
}
