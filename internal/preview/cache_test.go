package preview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/crumb/internal/api"
)

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(16, time.Minute)
	c.put(cacheKey(api.KindRecipe, "r1", fieldLikeCount), 3)
	c.put(cacheKey(api.KindRecipe, "r1", viewerField(fieldLiked, "u1")), true)
	c.put(cacheKey(api.KindRecipe, "r10", fieldLikeCount), 7)

	n, ok := cached[int](c, cacheKey(api.KindRecipe, "r1", fieldLikeCount))
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	c.Invalidate(api.KindRecipe, "r1")
	_, ok = cached[int](c, cacheKey(api.KindRecipe, "r1", fieldLikeCount))
	assert.False(t, ok)
	_, ok = cached[int](c, cacheKey(api.KindRecipe, "r10", fieldLikeCount))
	assert.True(t, ok, "prefix match must not hit other ids")
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCacheTypeMismatch(t *testing.T) {
	c := NewCache(4, time.Minute)
	c.put("k", "text")
	_, ok := cached[int](c, "k")
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	c.put("k", 1)
	_, ok := cached[int](c, "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
	c.Invalidate(api.KindBlog, "b1")
	c.Purge()
}
