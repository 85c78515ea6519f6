package repository

import (
	"context"
	"sync"
)

// Update is one delivery on a watch stream: the full result of the
// watched query at the time of delivery, or the error that query returned.
type Update[T any] struct {
	Items []T
	Err   error
}

// feed is a registry of listeners for one table. Every mutation calls
// notify; each listener re-runs its own query and pushes a full snapshot.
type feed struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[chan struct{}]struct{})}
}

func (f *feed) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

// notify wakes every listener. Signals coalesce: a listener that has not
// consumed the previous signal gets only one re-query.
func (f *feed) notify() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *feed) listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// watch delivers the result of query now and again after every change on f.
// The returned channel is closed once ctx is done.
func watch[T any](ctx context.Context, f *feed, query func(ctx context.Context) ([]T, error)) <-chan Update[T] {
	out := make(chan Update[T])
	signal, unsubscribe := f.subscribe()

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			items, err := query(ctx)
			if ctx.Err() != nil {
				return
			}

			select {
			case out <- Update[T]{Items: items, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
