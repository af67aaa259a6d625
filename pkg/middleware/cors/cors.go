package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the CORS middleware. An empty Origins list allows every origin.
type Options struct {
	Origins        []string
	Methods        []string
	Headers        []string
	ExposedHeaders []string
	MaxAgeSeconds  int
}

// DefaultOptions covers the dashboard front end: JSON reads, record edits, uploads and downloads.
func DefaultOptions(origins []string) Options {
	return Options{
		Origins:        origins,
		Methods:        []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		Headers:        []string{"Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Cache", "X-Row-Count"},
		MaxAgeSeconds:  600,
	}
}

// New returns the middleware with DefaultOptions for the given origins.
func New(origins []string) gin.HandlerFunc {
	return WithOptions(DefaultOptions(origins))
}

// WithOptions returns a CORS middleware. Preflight requests from origins outside the
// allow list are rejected with 403; simple requests pass through without CORS headers.
func WithOptions(opts Options) gin.HandlerFunc {
	allowAll := len(opts.Origins) == 0
	allowed := make(map[string]struct{}, len(opts.Origins))
	for _, origin := range opts.Origins {
		origin = normalize(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	methods := strings.Join(opts.Methods, ", ")
	headers := strings.Join(opts.Headers, ", ")
	exposed := strings.Join(opts.ExposedHeaders, ", ")
	maxAge := ""
	if opts.MaxAgeSeconds > 0 {
		maxAge = strconv.Itoa(opts.MaxAgeSeconds)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		permitted := allowAll
		if origin != "" && !allowAll {
			_, permitted = allowed[normalize(origin)]
		}

		switch {
		case origin == "" && allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && permitted:
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if permitted && exposed != "" {
			h.Set("Access-Control-Expose-Headers", exposed)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if origin != "" && !permitted {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if methods != "" {
			h.Set("Access-Control-Allow-Methods", methods)
		}
		if headers != "" {
			h.Set("Access-Control-Allow-Headers", headers)
		}
		if maxAge != "" {
			h.Set("Access-Control-Max-Age", maxAge)
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
