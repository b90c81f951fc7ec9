package middleware

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
)

// gzip writers are pooled; level 5 trades a little ratio for latency
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, 5)
		return gz
	},
}

// Compression gzips responses for clients that accept it.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(gz)
		gz.Reset(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gz: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gz io.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

func (w *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("ResponseWriter does not support Hijack")
}

// ETag buffers GET and HEAD responses, tags successful ones with a content
// hash and answers If-None-Match with 304.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		rec := &bufferedResponse{ResponseWriter: w, body: &bytes.Buffer{}}
		next.ServeHTTP(rec, r)

		if rec.status != 0 && rec.status != http.StatusOK {
			rec.flush(w)
			return
		}

		hash := sha256.Sum256(rec.body.Bytes())
		etag := `"` + hex.EncodeToString(hash[:16]) + `"`
		w.Header().Set("ETag", etag)

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Cache-Control", "private, must-revalidate")
		rec.flush(w)
	})
}

// bufferedResponse holds back the response until the ETag decision is made.
type bufferedResponse struct {
	http.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *bufferedResponse) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *bufferedResponse) WriteHeader(status int) {
	r.status = status
}

func (r *bufferedResponse) flush(w http.ResponseWriter) {
	if r.status > 0 {
		w.WriteHeader(r.status)
	}
	w.Write(r.body.Bytes())
}

// CacheControl adds cache headers based on path patterns. Availability and
// bookings are always revalidated.
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case strings.HasSuffix(path, "/availability") || strings.HasPrefix(path, "/api/bookings"):
			w.Header().Set("Cache-Control", "private, no-cache, must-revalidate")
		case strings.Contains(path, "/api/hotels/search"):
			w.Header().Set("Cache-Control", "public, max-age=120, must-revalidate")
		case strings.HasPrefix(path, "/api/hotels/"):
			w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
		case strings.HasPrefix(path, "/api/amenities"), strings.HasPrefix(path, "/api/posts"):
			w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
		default:
			w.Header().Set("Cache-Control", "private, no-cache, must-revalidate")
		}

		next.ServeHTTP(w, r)
	})
}

// ResponseOptimization combines compression, ETag, and cache control
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(ETag(Compression(next)))
}
