package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// gzipWriter sends the body through a pooled gzip stream.
type gzipWriter struct {
	http.ResponseWriter
	gz      *gzip.Writer
	started bool
}

func (w *gzipWriter) WriteHeader(status int) {
	if w.started {
		return
	}
	w.started = true
	h := w.ResponseWriter.Header()
	h.Del("Content-Length") // set by the handler for the plain body
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.gz.Write(b)
}

// compressible reports whether the response to r should be gzipped.
// WebSocket upgrades are left alone, and so are downloads, which are
// handed to the browser byte for byte.
func compressible(r *http.Request) bool {
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	return !isDownloadPath(r.URL.Path)
}

// isDownloadPath matches /s/{id}/files/{fileID}.
func isDownloadPath(path string) bool {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	return len(parts) == 4 && parts[0] == "s" && parts[2] == "files"
}

// WithCompression gzips responses for clients that accept it.
func WithCompression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !compressible(r) {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipPool.Get().(*gzip.Writer)
		gz.Reset(w)
		gzw := &gzipWriter{ResponseWriter: w, gz: gz}
		defer func() {
			// A handler that wrote nothing gets no gzip framing either.
			if gzw.started {
				gz.Close()
			}
			gz.Reset(io.Discard)
			gzipPool.Put(gz)
		}()

		next.ServeHTTP(gzw, r)
	})
}
