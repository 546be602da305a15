package middleware

import (
	"net/http"
	"sync/atomic"
	"time"
)

// RequestStats counts requests and server errors since start.
type RequestStats struct {
	start    time.Time
	requests atomic.Int64
	errors   atomic.Int64
}

func NewRequestStats(start time.Time) *RequestStats {
	return &RequestStats{start: start}
}

func (s *RequestStats) Requests() int64 { return s.requests.Load() }
func (s *RequestStats) Errors() int64   { return s.errors.Load() }
func (s *RequestStats) Start() time.Time { return s.start }

// Count wraps handlers so every request is counted and every 5xx response
// counts as an error.
func (s *RequestStats) Count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		sw := newStatusWriter(w)
		defer func() {
			if sw.status >= http.StatusInternalServerError {
				s.errors.Add(1)
			}
		}()
		next.ServeHTTP(sw, r)
	})
}
