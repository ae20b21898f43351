package storage

import (
	"context"
	"fmt"
	"sync"
)

// Snapshot is one push from a Subscription: either the full current result
// of the subscribed query or a terminal error.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Subscription is a live query. It delivers snapshots in the order it read
// them, one goroutine per subscription, so a consumer never sees an older
// snapshot after a newer one.
type Subscription[T any] struct {
	c      chan Snapshot[T]
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Watch starts a subscription that runs load once immediately and again
// after every tick from feed for ownerID. A load error is delivered as the
// final snapshot; the subscription then ends.
func Watch[T any](ctx context.Context, feed *Feed, ownerID string, load func(context.Context) ([]T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	ticks, stop := feed.Watch(ownerID)

	s := &Subscription[T]{
		c:      make(chan Snapshot[T]),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.c)
		defer stop()

		for {
			items, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			snap := Snapshot[T]{Items: items}
			if err != nil {
				snap = Snapshot[T]{Err: fmt.Errorf("subscription query failed: %w", err)}
			}

			select {
			case s.c <- snap:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}

			select {
			case _, ok := <-ticks:
				if !ok {
					s.deliverClosed(ctx)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

func (s *Subscription[T]) deliverClosed(ctx context.Context) {
	select {
	case s.c <- Snapshot[T]{Err: ErrClosed}:
	case <-ctx.Done():
	}
}

// C returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan Snapshot[T] {
	return s.c
}

// Close cancels the subscription and waits for its goroutine to exit.
// It is idempotent.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}
