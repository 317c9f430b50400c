// Package mw holds the HTTP middleware for the API surface.
package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type storedResponse struct {
	status int
	header http.Header
	body   []byte
}

// teeWriter copies the response body while it streams to the client so a
// successful reply can be stored for replay.
type teeWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache replays successful GET responses out of an in-memory store for ttl.
// Realtime and metrics endpoints are never cached.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || skipCache(c.Request.URL.Path) {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			resp := hit.(storedResponse)
			for k, v := range resp.header {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(resp.status)
			c.Writer.Write(resp.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer, buf: bytes.NewBuffer(nil)}
		c.Writer = tee
		c.Next()

		if status := tee.Status(); status >= 200 && status < 300 {
			store.Set(key, storedResponse{
				status: status,
				header: tee.Header().Clone(),
				body:   tee.buf.Bytes(),
			}, ttl)
		}
	}
}

func skipCache(path string) bool {
	return strings.HasPrefix(path, "/ws/") || path == "/metrics" || path == "/healthz"
}
