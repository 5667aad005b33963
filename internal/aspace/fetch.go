package aspace

import (
	"log"
	"sync"
)

// Fetcher returns the record identified by an ArchivesSpace uri
type Fetcher interface {
	Fetch(uri string) (Record, error)
}

// FetchFunc adapts a plain function to the Fetcher interface
type FetchFunc func(uri string) (Record, error)

// Fetch calls f(uri)
func (f FetchFunc) Fetch(uri string) (Record, error) {
	return f(uri)
}

// Cache is a write-once store of records keyed by uri. A Cache is itself a Fetcher, so
// records that were bulk loaded up front can be resolved without a live connection.
type Cache struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewCache creates a cache, optionally seeded with records keyed by uri
func NewCache(seed map[string]Record) *Cache {
	c := &Cache{records: make(map[string]Record, len(seed))}
	for uri, rec := range seed {
		c.records[uri] = rec
	}
	return c
}

// Put stores rec under uri. The first record stored for a uri wins; it returns false
// when the uri was already cached.
func (c *Cache) Put(uri string, rec Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[uri]; exists {
		return false
	}
	c.records[uri] = rec
	return true
}

// Get looks up a cached record
func (c *Cache) Get(uri string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[uri]
	return rec, ok
}

// Fetch implements Fetcher. Misses are reported as UnresolvableReferenceError.
func (c *Cache) Fetch(uri string) (Record, error) {
	rec, ok := c.Get(uri)
	if !ok {
		return nil, &UnresolvableReferenceError{URI: uri, Err: ErrNotCached}
	}
	return rec, nil
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Missing returns the uris from the list that are not cached, without duplicates
func (c *Cache) Missing(uris []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, uri := range uris {
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		if _, ok := c.records[uri]; !ok {
			out = append(out, uri)
		}
	}
	return out
}

// CachingFetcher consults a cache before falling back to a live fetcher. Successful live
// fetches are added to the cache so each uri is requested at most once.
type CachingFetcher struct {
	Cache *Cache
	Live  Fetcher
}

// NewCachingFetcher wraps live with a new, empty cache
func NewCachingFetcher(live Fetcher) *CachingFetcher {
	return &CachingFetcher{Cache: NewCache(nil), Live: live}
}

// Fetch implements Fetcher
func (cf *CachingFetcher) Fetch(uri string) (Record, error) {
	if rec, ok := cf.Cache.Get(uri); ok {
		return rec, nil
	}
	if cf.Live == nil {
		return cf.Cache.Fetch(uri)
	}
	rec, err := cf.Live.Fetch(uri)
	if err != nil {
		return nil, &UnresolvableReferenceError{URI: uri, Err: err}
	}
	if !cf.Cache.Put(uri, rec) {
		// lost a race with another fetch of the same uri; the first one stored wins
		cached, _ := cf.Cache.Get(uri)
		return cached, nil
	}
	return rec, nil
}

// fetchRef fetches a reference, logging and reporting failures as a nil record
func fetchRef(f Fetcher, uri string) Record {
	rec, err := f.Fetch(uri)
	if err != nil {
		log.Printf("WARNING: skipping unresolvable reference %s: %s", uri, err.Error())
		return nil
	}
	return rec
}
