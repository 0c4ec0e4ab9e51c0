package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Timeout caps how long a request may run. Queries that blow the budget get
// a 504 unless the handler already started writing; slow filter-only scans
// are the usual culprit.
func Timeout(budget time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), budget)
			defer cancel()

			rw := &statusCapture{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(rw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !rw.started {
					slog.Warn("query exceeded time budget",
						"method", r.Method, "path", r.URL.Path, "budget", budget)
					http.Error(w, `{"error":"query timeout"}`, http.StatusGatewayTimeout)
				}
			}
		})
	}
}

// statusCapture notes whether the wrapped handler has begun responding, so
// the timeout path never writes a second status line.
type statusCapture struct {
	http.ResponseWriter
	started bool
}

func (s *statusCapture) WriteHeader(code int) {
	s.started = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusCapture) Write(b []byte) (int, error) {
	s.started = true
	return s.ResponseWriter.Write(b)
}
