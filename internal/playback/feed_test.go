package playback

import (
	"testing"
	"time"
)

func TestPostReachesSubscribers(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	_, ch1 := f.Subscribe()
	_, ch2 := f.Subscribe()

	f.Post(3 * time.Second)

	for i, ch := range []<-chan time.Duration{ch1, ch2} {
		select {
		case got := <-ch:
			if got != 3*time.Second {
				t.Errorf("subscriber %d got %v, want 3s", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the position", i)
		}
	}
}

func TestSlowSubscriberGetsLatestPosition(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	_, ch := f.Subscribe()

	// nobody is reading; the stale value is dropped, not the new one
	f.Post(1 * time.Second)
	f.Post(2 * time.Second)
	f.Post(5 * time.Second)

	select {
	case got := <-ch:
		if got != 5*time.Second {
			t.Errorf("got %v, want the latest position 5s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("never received a position")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	id, ch := f.Subscribe()
	f.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}

	// posting after unsubscribe is a no-op for the removed listener
	f.Post(time.Second)
}

func TestCloseDropsAllSubscribers(t *testing.T) {
	f := NewFeed()
	_, ch := f.Subscribe()

	f.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}

	// post and a second close after shutdown must not panic
	f.Post(time.Second)
	f.Close()
}
