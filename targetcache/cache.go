// Package targetcache resolves target URLs with bounded-size
// memoization. Resolution delegates to the validation layer, so every
// cached entry already passed the SSRF gate.
package targetcache

import (
	"container/list"
	"net/url"
	"sync"

	"github.com/vyrodovalexey/avrelay/observability"
	"github.com/vyrodovalexey/avrelay/validate"
)

// Resolver builds absolute target URLs from a source and an optional
// base, memoizing results under a fixed capacity. Eviction is strict
// insertion-order FIFO: reads never refresh an entry's position.
type Resolver struct {
	capacity int
	logger   observability.Logger

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = oldest inserted
}

type cacheEntry struct {
	key    string
	target *url.URL
}

// NewResolver creates a resolver with the given cache capacity. A
// capacity of 0 disables caching entirely.
func NewResolver(capacity int, logger observability.Logger) *Resolver {
	if capacity < 0 {
		capacity = 0
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Resolver{
		capacity: capacity,
		logger:   logger,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Resolve returns the absolute target URL for (source, base). Cache
// hits return a fresh copy so callers cannot mutate the cached value
// through the returned reference.
func (r *Resolver) Resolve(source, base string) (*url.URL, error) {
	key := cacheKey(base, source)

	if target := r.lookup(key); target != nil {
		recordHit()
		return target, nil
	}
	recordMiss()

	target, err := validate.BuildURL(source, base)
	if err != nil {
		return nil, err
	}

	r.store(key, target)
	return target, nil
}

// lookup returns a copy of the cached URL for key, or nil.
func (r *Resolver) lookup(key string) *url.URL {
	if r.capacity == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.items[key]
	if !ok {
		return nil
	}
	return cloneURL(elem.Value.(*cacheEntry).target)
}

// store inserts a copy of target under key, evicting the single
// oldest-inserted entry when at capacity.
func (r *Resolver) store(key string, target *url.URL) {
	if r.capacity == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[key]; ok {
		return
	}

	if r.order.Len() >= r.capacity {
		oldest := r.order.Front()
		if oldest != nil {
			r.order.Remove(oldest)
			delete(r.items, oldest.Value.(*cacheEntry).key)
			recordEviction()
			r.logger.Debug("target cache evicted oldest entry")
		}
	}

	r.items[key] = r.order.PushBack(&cacheEntry{key: key, target: cloneURL(target)})
	recordSize(r.order.Len())
}

// Clear empties the cache.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]*list.Element)
	r.order.Init()
	recordSize(0)
}

// Len returns the number of cached entries.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// cacheKey builds the composite key for (base, source). The separator
// cannot appear in either component because validated URLs never
// contain control characters.
func cacheKey(base, source string) string {
	return base + "\x00" + source
}

// cloneURL returns a copy of u. The User field is shared; url.Userinfo
// is immutable.
func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
