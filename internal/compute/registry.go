package compute

import (
	"context"
	"sync"
)

// registryEntry tracks one in-flight or completed creation.
type registryEntry[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Registry is an in-memory map from a resource key to a created ancillary
// resource with atomic get-or-create semantics: for any key, the creation
// function runs at most once no matter how many provisioning calls race on
// it. Later callers block until the first creation settles. A failed
// creation is not cached; the next caller retries it.
type Registry[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*registryEntry[V]
}

// NewRegistry creates an empty registry.
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: make(map[K]*registryEntry[V])}
}

// GetOrCreate returns the resource for key, invoking create exactly once if
// no mapping exists. Concurrent callers for the same key share the single
// creation; waiting callers honor context cancellation without cancelling
// the creation itself.
func (r *Registry[K, V]) GetOrCreate(ctx context.Context, key K, create func(context.Context) (V, error)) (V, error) {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &registryEntry[V]{done: make(chan struct{})}
		r.entries[key] = entry
		r.mu.Unlock()

		entry.value, entry.err = create(ctx)
		close(entry.done)

		if entry.err != nil {
			r.mu.Lock()
			if r.entries[key] == entry {
				delete(r.entries, key)
			}
			r.mu.Unlock()
		}
		return entry.value, entry.err
	}
	r.mu.Unlock()

	select {
	case <-entry.done:
		return entry.value, entry.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Get returns the completed resource for key, if any. An in-flight creation
// does not count as present.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.Lock()
	entry, ok := r.entries[key]
	r.mu.Unlock()

	var zero V
	if !ok {
		return zero, false
	}
	select {
	case <-entry.done:
		if entry.err != nil {
			return zero, false
		}
		return entry.value, true
	default:
		return zero, false
	}
}

// Remove deletes the mapping for key. Removing an absent key is a no-op.
func (r *Registry[K, V]) Remove(key K) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// RemoveMatching deletes every mapping whose key satisfies the predicate.
func (r *Registry[K, V]) RemoveMatching(match func(K) bool) {
	r.mu.Lock()
	for key := range r.entries {
		if match(key) {
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()
}

// Len returns the number of mappings, in-flight creations included.
func (r *Registry[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
