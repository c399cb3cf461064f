package chat

import "sync"

// Subscription delivers snapshot-replacement updates: every value on Updates
// is the full current state, never a diff. When the consumer lags, stale
// snapshots are dropped in favor of the newest one.
type Subscription[T any] struct {
	ch     chan T
	cancel func()
	once   sync.Once
}

func newSubscription[T any](buffer int, cancel func()) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Subscription[T]{
		ch:     make(chan T, buffer),
		cancel: cancel,
	}
}

// Updates returns the snapshot channel. It is never closed; callers stop
// consuming after Close.
func (s *Subscription[T]) Updates() <-chan T {
	return s.ch
}

// Close releases the subscription. Further snapshots are not delivered.
// Close is idempotent.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
}

// push publishes a snapshot, replacing a stale undelivered one when the
// buffer is full. Callers must hold the owning store's lock, which keeps
// push single-publisher.
func (s *Subscription[T]) push(snapshot T) {
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
