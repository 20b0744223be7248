package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderProfileID selects the acting family-member profile.
	HeaderProfileID = "X-Profile-ID"
	// HeaderGeminiKey carries the caller's own model API key for one request.
	HeaderGeminiKey = "X-Gemini-API-Key"

	contextProfileKey = "profileID"
)

// Profile copies the optional profile selector header onto the context.
func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(HeaderProfileID)); id != "" {
			c.Set(contextProfileKey, id)
		}
		c.Next()
	}
}

// ProfileID returns the profile selected for this request, if any.
func ProfileID(c *gin.Context) string {
	if v, ok := c.Get(contextProfileKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GeminiKey reads the per-request model key. It is read straight from the
// header and never copied onto the context, so nothing downstream can log it.
func GeminiKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(HeaderGeminiKey))
}

// BodyLimit caps request bodies at maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
