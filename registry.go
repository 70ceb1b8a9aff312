package mpv

import (
	"fmt"
	"sync"
)

// Handle names one live engine instance. It is an opaque, address-sized
// identity owned by the engine; this package uses it only as a lookup key
// and as an argument to native calls.
type Handle uintptr

// registryEntry is the per-handle bookkeeping for the native-callback
// delivery path. The drain goroutine reading from wake is the only place
// events for the handle are pulled and dispatched, which is what serializes
// drains.
type registryEntry struct {
	handle   Handle
	consumer Consumer

	// wake carries coalesced wake-up notifications. Capacity 1: a wake-up
	// arriving while a drain is in progress leaves a pending token, forcing
	// the queue to be checked once more after the drain completes. Further
	// wake-ups during that window are redundant and dropped.
	wake chan struct{}
	quit chan struct{}
	done chan struct{} // closed when the drain goroutine exits
}

func newRegistryEntry(h Handle, consumer Consumer) *registryEntry {
	return &registryEntry{
		handle:   h,
		consumer: consumer,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// handleRegistry maps each live handle to its entry. An entry exists exactly
// while the handle is live and its engine-side wake-up callback targets this
// package; insert and remove happen once per handle, and a concurrent reader
// sees an entry fully or not at all.
type handleRegistry struct {
	mu      sync.RWMutex
	entries map[Handle]*registryEntry
}

func newHandleRegistry() *handleRegistry {
	return &handleRegistry{entries: make(map[Handle]*registryEntry)}
}

// insert registers the entry for its handle. A duplicate insert means the
// creation protocol was violated; that is a programming error, not a
// recoverable condition.
func (r *handleRegistry) insert(e *registryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.handle]; ok {
		panic(fmt.Sprintf("mpv: handle %#x registered twice", uintptr(e.handle)))
	}
	r.entries[e.handle] = e
}

// lookup returns the entry for h, or nil if h is not registered.
func (r *handleRegistry) lookup(h Handle) *registryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[h]
}

// remove deletes and returns the entry for h, or nil if h is not registered.
// The caller tears down the returned entry exactly once.
func (r *handleRegistry) remove(h Handle) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[h]
	if e != nil {
		delete(r.entries, h)
	}
	return e
}

// size reports the number of registered handles.
func (r *handleRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
