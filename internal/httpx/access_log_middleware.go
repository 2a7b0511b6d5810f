package httpx

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int64
	headerWritten bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.headerWritten {
		rw.statusCode = code
		rw.headerWritten = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) wroteHeader() bool {
	return rw.headerWritten
}

// HTTPObserver records one finished request.
type HTTPObserver interface {
	ObserveHTTP(method string, status int, d time.Duration)
}

// AccessLogMiddleware logs one entry per request and reports it to obs,
// which may be nil.
func AccessLogMiddleware(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			info := &requestInfo{}
			r = r.WithContext(context.WithValue(r.Context(), requestInfoKey, info))

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			if obs != nil {
				obs.ObserveHTTP(r.Method, rw.statusCode, duration)
			}

			log.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"bytes":       rw.bytesWritten,
				"duration_ms": duration.Milliseconds(),
				"request_id":  RequestIDFrom(r),
				"user_id":     info.userID,
			}).Info("access")
		})
	}
}
