// Package realtime is the row-change feed behind product subscriptions.
// Writers Publish a Change after every successful insert/update/delete;
// subscribers receive Changes for one table and decide what to re-fetch.
//
// Two drivers exist: Memory (single process) and Redis (pub/sub, shared by
// every instance pointing at the same Redis).
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Op is the kind of row change.
type Op string

const (
	Insert Op = "INSERT"
	Update Op = "UPDATE"
	Delete Op = "DELETE"
)

// Change describes one row change. Category and OldCategory are filled for
// product rows so category-scoped subscribers can ignore unrelated changes.
type Change struct {
	Table       string    `json:"table"`
	Op          Op        `json:"op"`
	ID          string    `json:"id"`
	Category    string    `json:"category,omitempty"`
	OldCategory string    `json:"old_category,omitempty"`
	At          time.Time `json:"at"`
}

// Touches reports whether the change affects rows in category, before or
// after the write.
func (c Change) Touches(category string) bool {
	return c.Category == category || c.OldCategory == category
}

// Feed publishes and fans out row changes.
type Feed interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(ctx context.Context, table string) (*Subscription, error)
	Close() error
}

// ErrClosed is reported by Subscription.Err after the feed shut down.
var ErrClosed = errors.New("realtime: feed closed")

const subscriptionBuffer = 16

// Subscription delivers the changes of one table until it is closed by the
// subscriber or fails. A failed subscription never resumes.
type Subscription struct {
	ch      chan Change
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex // guards err, closed and sends on ch
	err     error
	closed  bool
	release func()
}

func newSubscription(release func()) *Subscription {
	return &Subscription{
		ch:      make(chan Change, subscriptionBuffer),
		done:    make(chan struct{}),
		release: release,
	}
}

// Changes is closed when the subscription ends; check Err afterwards.
func (s *Subscription) Changes() <-chan Change { return s.ch }

// Err is nil while the subscription is open or after a subscriber Close,
// and the transport failure otherwise.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops delivery and releases the transport. Safe to call repeatedly.
func (s *Subscription) Close() { s.finish(nil) }

// deliver hands c to the subscriber without blocking the publisher. When the
// buffer is full the change is dropped: a pending change already forces a
// full re-fetch, so nothing is lost for full-set consumers.
func (s *Subscription) deliver(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- c:
	default:
	}
}

func (s *Subscription) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.closed = true
		close(s.ch)
		s.mu.Unlock()

		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}
