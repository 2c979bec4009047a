package playback

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Feed broadcasts audio playback positions to any number of listeners.
// Position updates are non-editorial state: they never open a
// transaction and never enter the undo history, so a playback timer can
// report from its own goroutine without touching the single-writer
// document.
type Feed struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan time.Duration
	closed bool
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[uuid.UUID]chan time.Duration)}
}

// Post publishes the current playback position. A slow listener loses
// stale positions instead of blocking the poster: only the most recent
// value matters.
func (f *Feed) Post(pos time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- pos:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- pos:
			default:
			}
		}
	}
}

// Subscribe registers a listener and returns its token and channel.
func (f *Feed) Subscribe() (uuid.UUID, <-chan time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	ch := make(chan time.Duration, 1)
	f.subs[id] = ch
	return id, ch
}

func (f *Feed) Unsubscribe(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Close drops every listener.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
