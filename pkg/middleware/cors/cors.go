package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// fixedHeaders are sent on every response. Allow-Headers includes the
// per-request model key and the explicit profile selector of the web client.
var fixedHeaders = [][2]string{
	{"Vary", "Origin"},
	{"Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-ID, X-Profile-ID, X-Gemini-API-Key"},
	{"Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS"},
	{"Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID"},
	{"Access-Control-Max-Age", "600"},
}

type policy struct {
	any     bool
	origins map[string]struct{}
}

func newPolicy(allowed []string) policy {
	p := policy{any: len(allowed) == 0, origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		p.origins[normalize(origin)] = struct{}{}
	}
	return p
}

// allowOrigin returns the Allow-Origin value for a request origin, or "".
// Credentials are only allowed when a concrete origin is echoed.
func (p policy) allowOrigin(origin string) string {
	if origin == "" {
		if p.any {
			return "*"
		}
		return ""
	}
	if _, ok := p.origins[normalize(origin)]; ok || p.any {
		return origin
	}
	return ""
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}

// New returns CORS middleware for the given origins; an empty list allows
// any origin. OPTIONS requests are answered with 204.
func New(allowedOrigins []string) gin.HandlerFunc {
	p := newPolicy(allowedOrigins)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allow := p.allowOrigin(c.GetHeader("Origin")); allow != "" {
			h.Set("Access-Control-Allow-Origin", allow)
			if allow != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		for _, kv := range fixedHeaders {
			h.Set(kv[0], kv[1])
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
