package storage

import "sync"

// Feed fans change notifications out to watchers of one owner's records.
// Stores call Notify after a write commits; subscriptions Watch it.
//
// Each watcher holds at most one pending tick. Ticks carry no payload, so
// coalescing them loses nothing: the watcher re-reads current state.
type Feed struct {
	mu       sync.Mutex
	nextID   uint64
	watchers map[string]map[uint64]chan struct{}
	closed   bool
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{watchers: make(map[string]map[uint64]chan struct{})}
}

// Watch registers interest in ownerID's records. The returned function
// unregisters and is safe to call more than once.
func (f *Feed) Watch(ownerID string) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{}, 1)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	if f.watchers[ownerID] == nil {
		f.watchers[ownerID] = make(map[uint64]chan struct{})
	}
	f.watchers[ownerID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if owned, ok := f.watchers[ownerID]; ok {
				if _, ok := owned[id]; ok {
					delete(owned, id)
					close(ch)
				}
				if len(owned) == 0 {
					delete(f.watchers, ownerID)
				}
			}
		})
	}
}

// Notify signals every watcher of ownerID that something changed.
func (f *Feed) Notify(ownerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.watchers[ownerID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers returns the number of registered watchers across all owners.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, owned := range f.watchers {
		n += len(owned)
	}
	return n
}

// Close closes every watcher channel. Later Watch calls get a closed channel.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ownerID, owned := range f.watchers {
		for id, ch := range owned {
			close(ch)
			delete(owned, id)
		}
		delete(f.watchers, ownerID)
	}
}
