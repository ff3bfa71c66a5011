package middleware

import (
	"net/http"
	"time"

	"givepool/pkg/requestcontext"
)

// RequestTime pins a single timestamp for the whole request so every
// mutation within it observes the same clock reading.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
