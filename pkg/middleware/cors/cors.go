package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Policy decides which browser origins may call the API. An empty list allows all.
type Policy struct {
	allowAll bool
	origins  map[string]struct{}
}

func NewPolicy(allowedOrigins []string) *Policy {
	p := &Policy{allowAll: len(allowedOrigins) == 0, origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		p.origins[normalize(origin)] = struct{}{}
	}
	return p
}

// Allowed reports whether origin may be served. Requests without an Origin
// header are not cross-origin and always pass.
func (p *Policy) Allowed(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	_, ok := p.origins[normalize(origin)]
	return ok
}

// CheckOrigin adapts the policy to websocket upgraders.
func (p *Policy) CheckOrigin(r *http.Request) bool {
	return p.Allowed(r.Header.Get("Origin"))
}

// New returns a CORS middleware that honors a list of allowed origins.
func New(allowedOrigins []string) gin.HandlerFunc {
	return NewPolicy(allowedOrigins).Middleware()
}

func (p *Policy) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		switch {
		case origin != "" && p.Allowed(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && p.allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		}

		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
