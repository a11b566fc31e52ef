// Package media owns image content-addressing: a hash-indexed resource
// cache and the coordinator that uploads local data: URLs to the server and
// fans out the resulting serverUrl to every node sharing that hash.
package media

import "sync"

// Entry is one resource cache record: a content hash maps to a URL that is
// either a local data: URL (IsLocal) or a server-relative path once the
// upload for that hash has completed.
type Entry struct {
	URL              string
	ServerFilename   string
	OriginalFilename string
	Thumbnail        string
	IsLocal          bool
	RefCount         int
}

// Cache is a mapping from content hash to Entry, reference counted per hash.
// Entries are never removed: Release only decrements the count and keeps the
// entry at zero references, and the engine never evicts cache entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewCache creates an empty resource cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Get returns the entry for hash, or nil if absent.
func (c *Cache) Get(hash string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[hash]
}

// Retain registers a reference to hash, creating a local entry with the
// given data: URL if none exists yet, or incrementing the ref count of an
// existing one.
func (c *Cache) Retain(hash, url string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok {
		e = &Entry{URL: url, IsLocal: true}
		c.entries[hash] = e
	}
	e.RefCount++
	return e
}

// Release drops a reference to hash; the entry is kept even at zero
// references since re-duplicating the same image is common and a cache
// miss would mean re-uploading bytes already on the server.
func (c *Cache) Release(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[hash]; ok && e.RefCount > 0 {
		e.RefCount--
	}
}

// UpgradeToServer marks hash's cache entry as uploaded: the URL becomes the
// server path and IsLocal flips false, so future Retain calls for the same
// hash reuse the server URL instead of re-encoding a data: URL.
func (c *Cache) UpgradeToServer(hash, serverURL, serverFilename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok {
		e = &Entry{}
		c.entries[hash] = e
	}
	e.URL = serverURL
	e.ServerFilename = serverFilename
	e.IsLocal = false
}
