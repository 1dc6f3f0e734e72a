package server

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestID tags each request with a generated ID, echoed back in the
// X-Request-ID header and attached to the access log line.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %s", id, r.Method, r.URL.Path, time.Since(start))
	})
}
