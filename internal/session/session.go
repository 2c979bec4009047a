package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janjanpower/text-alignment-tool/internal/document"
	"github.com/janjanpower/text-alignment-tool/internal/logging"
	"github.com/janjanpower/text-alignment-tool/internal/playback"
	"github.com/janjanpower/text-alignment-tool/internal/state"
)

// Gateway is the slice of the persistence layer a session consumes.
// Saves are at-least-once and idempotent, keyed (project_id, index).
type Gateway interface {
	LoadEntries(ctx context.Context, projectID int64) ([]document.Entry, error)
	SaveEntries(ctx context.Context, projectID int64, entries []document.Entry, docLen int) error
	LoadRules(ctx context.Context, projectID int64) ([]document.Rule, error)
}

type Options struct {
	MaxHistory     int
	CoalesceWindow time.Duration
	// how long to wait before retrying a failed flush
	FlushRetryInterval time.Duration
}

const defaultFlushRetryInterval = 5 * time.Second

// Session binds one open project to its own manager stack, undo history
// and flush loop. Multiple open projects get independent sessions with
// no shared mutable state. Commit stays synchronous and in-memory; the
// session flushes the dirty range to the gateway afterward on its own
// goroutine. A storage failure never rolls back a committed edit: the
// changes stay pending and the flush is retried.
type Session struct {
	projectID int64
	gw        Gateway
	mgr       *state.Correction
	rules     []document.Rule
	feed      *playback.Feed
	log       *logging.Logger

	subID uuid.UUID

	mu         sync.Mutex
	dirtyFirst int
	dirtyLast  int
	docLen     int
	lastErr    error

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func Open(ctx context.Context, gw Gateway, projectID int64, opts Options, log *logging.Logger) (*Session, error) {
	if log == nil {
		log = logging.NewNop()
	}
	entries, err := gw.LoadEntries(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// rows come back ordered by ordinal; renumber so gaps left by an
	// interrupted flush do not violate the contiguity invariant
	for i := range entries {
		entries[i].Index = i
	}
	rules, err := gw.LoadRules(ctx, projectID)
	if err != nil {
		return nil, err
	}

	store, err := document.NewStore(entries)
	if err != nil {
		return nil, err
	}
	generic := state.NewGeneric(store, opts.MaxHistory, log)
	enhanced := state.NewEnhanced(generic, opts.CoalesceWindow, log)
	mgr := state.NewCorrection(enhanced, log)

	retry := opts.FlushRetryInterval
	if retry <= 0 {
		retry = defaultFlushRetryInterval
	}

	s := &Session{
		projectID:  projectID,
		gw:         gw,
		mgr:        mgr,
		rules:      rules,
		feed:       playback.NewFeed(),
		log:        log,
		dirtyFirst: 0,
		dirtyLast:  -1,
		docLen:     len(entries),
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	s.subID = mgr.Subscribe(s.onChange)

	s.wg.Add(1)
	go s.flushLoop(retry)

	log.Infow("session opened", "project_id", projectID, "entries", len(entries), "rules", len(rules))
	return s, nil
}

func (s *Session) Manager() *state.Correction { return s.mgr }
func (s *Session) Rules() []document.Rule     { return s.rules }
func (s *Session) Feed() *playback.Feed       { return s.feed }
func (s *Session) ProjectID() int64           { return s.projectID }

// Pending reports whether committed changes are still waiting to reach
// storage ("unsaved changes pending").
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLast >= s.dirtyFirst
}

// LastFlushError returns the most recent flush failure, or nil.
func (s *Session) LastFlushError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// onChange runs on the writer goroutine for every commit, undo and
// redo; it widens the pending dirty range and wakes the flush loop.
func (s *Session) onChange(ev state.Event) {
	if ev.Last < ev.First {
		return
	}
	s.mu.Lock()
	if s.dirtyLast < s.dirtyFirst {
		s.dirtyFirst, s.dirtyLast = ev.First, ev.Last
	} else {
		if ev.First < s.dirtyFirst {
			s.dirtyFirst = ev.First
		}
		if ev.Last > s.dirtyLast {
			s.dirtyLast = ev.Last
		}
	}
	s.docLen = ev.Snapshot.Len()
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Session) flushLoop(retry time.Duration) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
		}
		for {
			if err := s.flushOnce(context.Background()); err == nil {
				break
			}
			select {
			case <-s.done:
				return
			case <-time.After(retry):
			}
		}
	}
}

// flushOnce writes the pending dirty range. On failure the range is
// merged back so nothing is lost and the caller reschedules.
func (s *Session) flushOnce(ctx context.Context) error {
	s.mu.Lock()
	first, last := s.dirtyFirst, s.dirtyLast
	if last < first {
		s.mu.Unlock()
		return nil
	}
	s.dirtyFirst, s.dirtyLast = 0, -1
	s.mu.Unlock()

	snap := s.mgr.Snapshot()
	docLen := snap.Len()
	if last > docLen-1 {
		last = docLen - 1
	}
	var changed []document.Entry
	for i := first; i <= last; i++ {
		changed = append(changed, snap.At(i))
	}

	if err := s.gw.SaveEntries(ctx, s.projectID, changed, docLen); err != nil {
		s.mu.Lock()
		if s.dirtyLast < s.dirtyFirst {
			s.dirtyFirst, s.dirtyLast = first, last
		} else {
			if first < s.dirtyFirst {
				s.dirtyFirst = first
			}
			if last > s.dirtyLast {
				s.dirtyLast = last
			}
		}
		s.lastErr = err
		s.mu.Unlock()
		s.log.Warnw("flush failed, changes pending", "project_id", s.projectID, "error", err)
		return err
	}

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// ReplaceAll swaps the whole document for an imported batch as a single
// undo step.
func (s *Session) ReplaceAll(entries []document.Entry) error {
	h, err := s.mgr.BeginBatch()
	if err != nil {
		return err
	}
	for n := s.mgr.Snapshot().Len(); n > 0; n-- {
		if err := s.mgr.Remove(h, n-1); err != nil {
			s.mgr.Rollback(h)
			return err
		}
	}
	for i, e := range entries {
		if err := s.mgr.Insert(h, i, e); err != nil {
			s.mgr.Rollback(h)
			return err
		}
	}
	return s.mgr.Commit(h)
}

// Close stops the flush loop, makes one final synchronous flush attempt
// and releases the position feed.
func (s *Session) Close() error {
	close(s.done)
	s.wg.Wait()
	err := s.flushOnce(context.Background())
	s.mgr.Unsubscribe(s.subID)
	s.feed.Close()
	s.log.Infow("session closed", "project_id", s.projectID, "pending", s.Pending())
	return err
}
