package bbox

import "sync"

// FormatCache remembers the codec resolved for each resource (typically an
// image path) for the lifetime of a session. Nothing is persisted.
//
// FormatCache is safe for concurrent use. Concurrent writers for the same
// resource race with last-write-wins semantics.
type FormatCache struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewFormatCache creates an empty cache.
func NewFormatCache() *FormatCache {
	return &FormatCache{
		codecs: make(map[string]Codec),
	}
}

// Get returns the codec cached for resource.
func (c *FormatCache) Get(resource string) (Codec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	codec, ok := c.codecs[resource]
	return codec, ok
}

// Set records codec as the choice for resource.
func (c *FormatCache) Set(resource string, codec Codec) {
	c.mu.Lock()
	c.codecs[resource] = codec
	c.mu.Unlock()
}

// Evict forgets the choice for resource. The next resolution runs detection
// again.
func (c *FormatCache) Evict(resource string) {
	c.mu.Lock()
	delete(c.codecs, resource)
	c.mu.Unlock()
}

// Clear forgets every cached choice.
func (c *FormatCache) Clear() {
	c.mu.Lock()
	c.codecs = make(map[string]Codec)
	c.mu.Unlock()
}

// Len returns the number of cached resources.
func (c *FormatCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.codecs)
}
