package httpapi

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
)

type contextKey int

const traceIDKey contextKey = iota

func withTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the request's trace id as stamped by traceIDMiddleware:
// the X-Trace-Id header value if non-empty (used as given, without a
// format check), else a generated 32 character hex string. A request that
// has not passed through the middleware gets a freshly generated id.
func TraceID(r *http.Request) string {
	if v, ok := r.Context().Value(traceIDKey).(string); ok {
		return v
	}
	return generateTraceID()
}

func generateTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// traceIDMiddleware stamps every request with a trace id, preferring a
// client-supplied X-Trace-Id header.
func traceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = generateTraceID()
		}
		w.Header().Set("X-Trace-Id", traceID)
		ctx := withTraceID(r.Context(), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
