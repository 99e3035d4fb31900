package texture

import (
	"image"
	"sync"
)

// Source loads a texture by name.
type Source interface {
	Load(name string) (*image.NRGBA, error)
}

// Cache memoizes a Source, failures included, so a missing file is only
// looked up once. It is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	src      Source
	items    map[string]*cacheEntry
	released bool
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a cache in front of src.
func NewCache(src Source) *Cache {
	return &Cache{
		src:   src,
		items: make(map[string]*cacheEntry),
	}
}

// Texture returns the named texture, loading it on first use.
func (c *Cache) Texture(name string) (*image.NRGBA, error) {
	c.mu.RLock()
	if c.released {
		c.mu.RUnlock()
		return nil, ErrReleased
	}
	if entry, ok := c.items[name]; ok {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := c.src.Load(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrReleased
	}
	if entry, ok := c.items[name]; ok {
		return entry.img, entry.err
	}
	c.items[name] = &cacheEntry{img: img, err: err}
	return img, err
}

// Len returns the number of cached lookups, failed ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Release drops every cached image. Later lookups fail with ErrReleased.
// Calling Release again does nothing.
func (c *Cache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	clear(c.items)
}

// Released reports whether Release has been called.
func (c *Cache) Released() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}
