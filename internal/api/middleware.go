package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// sessionKey returns the key a request presents: the bearer token, or the
// sesskey query parameter page links carry.
func sessionKey(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		return token, ok
	}
	if key := r.URL.Query().Get("sesskey"); key != "" {
		return key, true
	}
	return "", false
}

// SessionKeyAuth rejects requests that do not present the editing session
// key.
func SessionKeyAuth(sessKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := sessionKey(r)
			switch {
			case !ok:
				log.Warn("rejected edit", "path", r.URL.Path, "reason", "no session key")
				jsonError(w, "missing session key", http.StatusUnauthorized)
				return
			case subtle.ConstantTimeCompare([]byte(key), []byte(sessKey)) != 1:
				log.Warn("rejected edit", "path", r.URL.Path, "reason", "invalid session key")
				jsonError(w, "invalid session key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type failureKey struct{}

// noteFailure records the message of an edit the backend refused, so the
// request log carries it even when the response status is 200.
func noteFailure(ctx context.Context, msg string) {
	if p, ok := ctx.Value(failureKey{}).(*string); ok {
		*p = msg
	}
}

// EditLogger logs each request against the course being edited. Edits are
// logged at info, fragment reads at debug, and refused edits at warn.
func EditLogger(courseID int, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			var failure string
			r = r.WithContext(context.WithValue(r.Context(), failureKey{}, &failure))
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			level := slog.LevelDebug
			if r.Method != http.MethodGet {
				level = slog.LevelInfo
			}
			attrs := []any{
				"course", courseID,
				"method", r.Method,
				"route", routePattern(r),
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if sw.status >= http.StatusBadRequest || failure != "" {
				level = slog.LevelWarn
				attrs = append(attrs, "error", failure)
			}
			log.Log(r.Context(), level, "edit request", attrs...)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
