package grid

import (
	"container/list"
	"image"

	"go.uber.org/zap"
)

// DecodedImage is an owned pixel buffer. At any time it belongs to exactly
// one of the cache, a load in flight, or nobody.
type DecodedImage struct {
	Pixels *image.RGBA
}

// Width returns the image width in pixels.
func (d *DecodedImage) Width() int {
	if d == nil || d.Pixels == nil {
		return 0
	}
	return d.Pixels.Bounds().Dx()
}

// Height returns the image height in pixels.
func (d *DecodedImage) Height() int {
	if d == nil || d.Pixels == nil {
		return 0
	}
	return d.Pixels.Bounds().Dy()
}

type cacheEntry struct {
	key   string
	value *DecodedImage
}

// ImageCache is a least-recently-used store of decoded images where every
// entry costs 1. Get, Take and Insert all count as a use of their key.
//
// It is not safe for concurrent use; it lives on the UI goroutine.
type ImageCache struct {
	capacity int
	ll       *list.List
	entries  map[string]*list.Element
	onEvict  func(key string)
	log      *zap.Logger
}

// NewImageCache returns an empty cache holding at most capacity entries.
func NewImageCache(capacity int) *ImageCache {
	c := &ImageCache{
		ll:      list.New(),
		entries: make(map[string]*list.Element),
		log:     zap.NewNop(),
	}
	c.SetCapacity(capacity)
	return c
}

// OnEvict registers a hook called with the key of every entry removed by
// the capacity policy.
func (c *ImageCache) OnEvict(fn func(key string)) {
	c.onEvict = fn
}

// Get returns the cached image for key without transferring ownership.
func (c *ImageCache) Get(key string) (*DecodedImage, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*cacheEntry).value, true
}

// Contains reports whether key is cached without touching it.
func (c *ImageCache) Contains(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Take removes key from the cache and hands its image to the caller.
func (c *ImageCache) Take(key string) (*DecodedImage, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.ll.Remove(e)
	delete(c.entries, key)
	return e.Value.(*cacheEntry).value, true
}

// Insert stores img under key, replacing any previous image, then evicts the
// least recently used other entries until the cache is within capacity.
// With a capacity of zero the image is dropped.
func (c *ImageCache) Insert(key string, img *DecodedImage) {
	if c.capacity == 0 {
		c.Remove(key)
		return
	}
	if e, ok := c.entries[key]; ok {
		e.Value.(*cacheEntry).value = img
		c.ll.MoveToFront(e)
		return
	}
	c.entries[key] = c.ll.PushFront(&cacheEntry{key: key, value: img})
	c.trim()
}

// Remove drops key without calling the eviction hook.
func (c *ImageCache) Remove(key string) {
	if e, ok := c.entries[key]; ok {
		c.ll.Remove(e)
		delete(c.entries, key)
	}
}

// SetCapacity changes the maximum total cost, evicting as needed.
func (c *ImageCache) SetCapacity(n int) {
	if !invariant(c.log, n >= 0, "cache capacity must not be negative", zap.Int("capacity", n)) {
		n = 0
	}
	c.capacity = n
	c.trim()
}

// SetLogger sets the logger used to report invariant violations.
func (c *ImageCache) SetLogger(log *zap.Logger) {
	if log != nil {
		c.log = log
	}
}

// Capacity returns the maximum total cost.
func (c *ImageCache) Capacity() int { return c.capacity }

// Cost returns the total cost of the held entries.
func (c *ImageCache) Cost() int { return c.ll.Len() }

// Len returns the number of held entries.
func (c *ImageCache) Len() int { return c.ll.Len() }

// Keys returns the cached keys from most to least recently used.
func (c *ImageCache) Keys() []string {
	keys := make([]string, 0, c.ll.Len())
	for e := c.ll.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*cacheEntry).key)
	}
	return keys
}

// Clear drops every entry.
func (c *ImageCache) Clear() {
	c.ll.Init()
	clear(c.entries)
}

func (c *ImageCache) trim() {
	for c.ll.Len() > c.capacity {
		tail := c.ll.Back()
		if tail == nil {
			return
		}
		c.ll.Remove(tail)
		key := tail.Value.(*cacheEntry).key
		delete(c.entries, key)
		if c.onEvict != nil {
			c.onEvict(key)
		}
	}
}
