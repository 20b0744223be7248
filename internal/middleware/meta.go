package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey      = "responseMeta"
	metaStartKey = "responseMetaStart"
)

// WithResponseMeta gives every request a meta map that handlers fill in and
// pass to the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaKey, map[string]interface{}{})
		c.Set(metaStartKey, time.Now())
		c.Next()
	}
}

// SetCacheHit marks whether the payload came from the analytics cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// SetMeta stores one meta value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if meta := metaMap(c); meta != nil {
		meta[key] = value
	}
}

// ResponseMeta returns a copy of the collected values plus
// processing_time_ms measured from the start of the request. It is nil when
// WithResponseMeta is not installed.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	meta := metaMap(c)
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if started, ok := c.Get(metaStartKey); ok {
		if t, ok := started.(time.Time); ok {
			out["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	return out
}

func metaMap(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(metaKey)
	if !ok {
		return nil
	}
	meta, _ := raw.(map[string]interface{})
	return meta
}
