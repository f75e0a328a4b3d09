package cache

import (
	"bytes"
	"net/http"
	"time"
)

// MiddlewareConfig holds configuration for the document cache middleware
type MiddlewareConfig struct {
	// Cache is the backend to use
	Cache Cache
	// TTL is the time-to-live for cached documents
	TTL time.Duration
	// SkipPaths lists paths that are never cached
	SkipPaths []string
}

// DefaultMiddlewareConfig returns a default middleware configuration
func DefaultMiddlewareConfig(c Cache) MiddlewareConfig {
	return MiddlewareConfig{
		Cache: c,
		TTL:   5 * time.Minute,
	}
}

// Middleware caches successful GET responses. Write verbs pass through
// untouched; only 200 responses are stored.
func Middleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			for _, skip := range config.SkipPaths {
				if r.URL.Path == skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := Key(r)
			ctx := r.Context()

			if cached, err := config.Cache.Get(ctx, key); err == nil {
				w.Header().Set("Content-Type", contentTypeOf(cached))
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(stripContentType(cached))
				return
			}

			recorder := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.status == http.StatusOK {
				entry := encodeEntry(recorder.Header().Get("Content-Type"), recorder.body.Bytes())
				// Best effort: a failed store never fails the request
				config.Cache.Set(ctx, key, entry, config.TTL)
			}
		})
	}
}

// captureWriter tees the response body so it can be cached after serving
type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Cached entries are "<content-type>\n<body>" so the media type survives the
// round trip without a second cache key.

func encodeEntry(contentType string, body []byte) []byte {
	entry := make([]byte, 0, len(contentType)+1+len(body))
	entry = append(entry, contentType...)
	entry = append(entry, '\n')
	return append(entry, body...)
}

func contentTypeOf(entry []byte) string {
	if i := bytes.IndexByte(entry, '\n'); i >= 0 {
		return string(entry[:i])
	}
	return "application/json"
}

func stripContentType(entry []byte) []byte {
	if i := bytes.IndexByte(entry, '\n'); i >= 0 {
		return entry[i+1:]
	}
	return entry
}
