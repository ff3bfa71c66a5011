package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"givepool/pkg/requestcontext"
)

// RequestIDHeader is echoed back to the client so support can correlate logs.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request an ID, honoring one supplied by the client.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID set by the RequestID middleware.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
