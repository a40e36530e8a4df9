package middleware

import (
	"net/http"

	"github.com/descubra-ms/guata/internal/api"
)

// DefaultMaxBodyBytes fits any question with room to spare.
const DefaultMaxBodyBytes int64 = 64 << 10

// MaxBodyBytes rejects declared oversize bodies up front and caps the rest
// while they are read. GET and HEAD requests pass through.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
