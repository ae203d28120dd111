package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/util"
)

// WrappedResponseWriter captures the written HTTP status code for logging
type WrappedResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func WrapResponseWriter(w http.ResponseWriter) *WrappedResponseWriter {
	return &WrappedResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *WrappedResponseWriter) Status() int {
	return rw.status
}

func (rw *WrappedResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

// Flush keeps event streams working behind the wrapper
func (rw *WrappedResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *WrappedResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestHandler enriches the request context with the HTTP log source and a request id
// and logs the outcome of every request
func RequestHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		//nolint
		ctx := context.WithValue(r.Context(), util.SourceKey, util.HTTPSource)

		reqID := uuid.New().String()
		//nolint
		ctx = context.WithValue(ctx, util.RequestIDKey, reqID)

		start := time.Now()
		w := WrapResponseWriter(rw)
		w.Header().Set("X-Request-Id", reqID)

		h.ServeHTTP(w, r.WithContext(ctx))

		log.WithContext(ctx).Debugf("%s %s %d %s", r.Method, r.URL.Path, w.Status(), time.Since(start))
	})
}
