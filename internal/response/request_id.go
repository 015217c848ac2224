package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key under which the request ID is
// stored for handlers and the response envelope.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID. A caller-supplied
// X-Request-ID header is honored so upstream proxies can correlate logs;
// otherwise a fresh UUID is minted. The ID is echoed back in the response
// header either way.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
