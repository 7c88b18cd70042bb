package restapi

import (
	"fmt"
	"net/http"
)

// cacheControlWriter defers the Cache-Control decision until the status
// code is known so that error responses are never cached.
type cacheControlWriter struct {
	http.ResponseWriter
	maxAgeSeconds int
	wroteHeader   bool
}

func (w *cacheControlWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		if statusCode >= 200 && statusCode < 300 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", w.maxAgeSeconds))
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// CacheControlMiddleware marks successful responses as cacheable for
// maxAgeSeconds. Non-2xx responses get no-store headers.
func CacheControlMiddleware(maxAgeSeconds int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheControlWriter{
			ResponseWriter: w,
			maxAgeSeconds:  maxAgeSeconds,
		}, r)
	})
}
