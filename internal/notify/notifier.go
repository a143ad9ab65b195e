package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/store"
)

// Sink delivers notifications somewhere a user can see them.
type Sink interface {
	Send(n Notification)
}

// Deduper decides whether a notification key may fire again.
type Deduper interface {
	// Allow reports whether key has not fired within window, and marks it as
	// fired when it has not.
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
}

// Notifier turns store transitions into user-facing notifications. It emits
// at most one notification per action kind and product within the window.
type Notifier struct {
	dedup  Deduper
	window time.Duration
	sinks  []Sink
}

// NewNotifier creates a Notifier. A nil dedup disables de-duplication.
func NewNotifier(dedup Deduper, window time.Duration, sinks ...Sink) *Notifier {
	return &Notifier{dedup: dedup, window: window, sinks: sinks}
}

// Attach subscribes the notifier to s and returns the unsubscribe function.
func (n *Notifier) Attach(s *store.Store) func() {
	return s.Subscribe(n.Listen)
}

// Listen is a store.Listener.
func (n *Notifier) Listen(_, next store.State, a store.Action) {
	msg, ok := fromAction(next, a)
	if !ok {
		return
	}
	msg.Action = a.Type()
	msg.ProductID = a.ProductID

	if !n.allow(a.DedupKey()) {
		log.Debug().Str("key", a.DedupKey()).Str("action", a.Type()).Msg("Notification suppressed")
		return
	}
	n.Publish(msg)
}

// Publish sends msg to every sink without de-duplication.
func (n *Notifier) Publish(msg Notification) {
	for _, s := range n.sinks {
		s.Send(msg)
	}
}

func (n *Notifier) allow(key string) bool {
	if n.dedup == nil || n.window <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ok, err := n.dedup.Allow(ctx, key, n.window)
	if err != nil {
		// fail open
		log.Warn().Err(err).Str("key", key).Msg("Notification dedup unavailable")
		return true
	}
	return ok
}

// MemoryDeduper keeps fired keys in process memory.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemoryDeduper creates an empty MemoryDeduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) Allow(_ context.Context, key string, window time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if until, ok := d.seen[key]; ok && now.Before(until) {
		return false, nil
	}
	d.seen[key] = now.Add(window)

	for k, until := range d.seen {
		if !now.Before(until) {
			delete(d.seen, k)
		}
	}
	return true, nil
}

// LogSink writes notifications to the application log.
type LogSink struct{}

func (LogSink) Send(n Notification) {
	ev := log.Info()
	if n.Level == LevelError {
		ev = log.Warn()
	}
	ev.Str("severity", string(n.Level)).
		Str("action", n.Action).
		Str("product_id", n.ProductID).
		Msg(n.Message)
}
