package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"

	// CacheHeader reports whether a dashboard payload came from the cache.
	CacheHeader = "X-Cache"
)

// WithResponseMeta attaches a metadata map to the request. Handlers fill it through
// SetMeta and SetCacheHit; processing_time_ms is stamped once the chain returns.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetMeta stores a single metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil || key == "" {
		return
	}
	ensureMeta(c)[key] = value
}

// SetCacheHit records the cache outcome in the metadata and the X-Cache header.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	SetMeta(c, cacheHitKey, hit)
	if hit {
		c.Header(CacheHeader, "HIT")
	} else {
		c.Header(CacheHeader, "MISS")
	}
}

// ExtractMeta returns the metadata map stored on the context, or nil.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	typed, _ := meta.(map[string]interface{})
	return typed
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
