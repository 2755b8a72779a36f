package preview

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pders01/crumb/internal/api"
)

// Cache fields.
const (
	fieldImage        = "image"
	fieldLikeCount    = "like-count"
	fieldCommentCount = "comment-count"
	fieldLiked        = "is-liked"
	fieldBookmarked   = "is-bookmarked"
	fieldFollowing    = "is-following"
)

// Cache holds per-item auxiliary data shared by every preview of the same
// item, keyed by kind:id:field. Personalized fields carry the viewer id.
type Cache struct {
	lru *expirable.LRU[string, any]
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func cacheKey(kind api.Kind, id, field string) string {
	return string(kind) + ":" + id + ":" + field
}

func viewerField(field, viewerID string) string {
	return field + "@" + viewerID
}

func cached[T any](c *Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (c *Cache) put(key string, value any) {
	if c == nil {
		return
	}
	c.lru.Add(key, value)
}

func (c *Cache) remove(keys ...string) {
	if c == nil {
		return
	}
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

// Invalidate drops every cached field of kind/id.
func (c *Cache) Invalidate(kind api.Kind, id string) {
	if c == nil {
		return
	}
	prefix := cacheKey(kind, id, "")
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

// Purge empties the cache, e.g. when the viewer changes.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
