package api

import (
	"net/http"
	"time"

	"turista/internal/metrics"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTP(route, rec.status, elapsed)

		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("http request")
	})
}

// rateLimiter throttles a route with a single shared token bucket.
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter returns a limiter allowing rps requests per second. rps <= 0 disables it.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		return &rateLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	if l.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests; try again shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
