package httpapi

import (
	"net/http"
	"strconv"

	"cryptobff-gateway/internal/apierror"
	"cryptobff-gateway/internal/app"
)

// rateLimited wraps next with the rate-limit gate for provider, admitting
// or returning a 429 with the Retry-After header set per spec.md §4.4.
func rateLimited(gw *app.Gateway, provider, route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := gw.Gate.Admit(r.Context(), provider, route, 1.0)
		gw.Metrics.ObserveClamp(provider, gw.Clamp.Get(provider))
		if !allowed {
			gw.Metrics.IncrementDeny()
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
			apierror.Write(w, apierror.Throttled("rate limit exceeded for "+provider), TraceID(r))
			return
		}
		gw.Metrics.IncrementAllow()
		next(w, r)
	}
}

func retryAfterSeconds(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	ceil := int(seconds)
	if float64(ceil) < seconds {
		ceil++
	}
	return ceil
}

// recoverMiddleware converts a panic in a downstream handler into a
// 500 internal_error response instead of crashing the process.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				apierror.Write(w, apierror.Internal("internal server error"), TraceID(r))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
