package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ideamans/go-sheetdb/internal/ops"
)

// Identity headers set by the upstream auth layer.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserName  = "X-User-Name"
	HeaderUserRole  = "X-User-Role"
	HeaderRequestID = "X-Request-Id"
)

type contextKey string

const (
	callerKey    contextKey = "caller"
	requestIDKey contextKey = "requestID"
)

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

func callerFrom(r *http.Request) ops.Caller {
	c, _ := r.Context().Value(callerKey).(ops.Caller)
	return c
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// AccessLog assigns a request id and logs every request once it completes.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			log.Info("http request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recovery turns a panic into a 500 problem response.
func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.ByteString("stack", debug.Stack()),
					)
					respondProblem(w, r, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Identity reads the caller from the identity headers. Requests without a
// user id are rejected, except for /health.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		c := ops.Caller{
			UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Name:   strings.TrimSpace(r.Header.Get(HeaderUserName)),
			Role:   strings.TrimSpace(r.Header.Get(HeaderUserRole)),
		}
		if c.UserID == "" {
			respondProblem(w, r, http.StatusUnauthorized, "missing "+HeaderUserID+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, c)))
	})
}
