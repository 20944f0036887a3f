// Package httpapi assembles the gateway's HTTP surface: router,
// middleware chain, and request handlers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cryptobff-gateway/internal/app"
)

// NewRouter assembles the full chi router. Middleware order (outermost
// first): panic recovery, trace id, CORS, structured request log, then
// per-route rate-limit gating for every gated endpoint. The operator
// reset route sits behind trace-id/logging only, never the gate.
func NewRouter(gw *app.Gateway) http.Handler {
	r := chi.NewRouter()

	r.Use(recoverMiddleware)
	r.Use(traceIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://127.0.0.1:3000", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(requestLogMiddleware(gw))

	r.Get("/health", rateLimited(gw, "coingecko", "/health", healthHandler(gw)))
	r.Get("/capabilities", rateLimited(gw, "coingecko", "/capabilities", capabilitiesHandler(gw)))
	r.Get("/assets/{asset_id}/candles", rateLimited(gw, "coingecko", "/assets/candles", candlesHandler(gw)))
	r.Post("/portfolio/holdings/import", rateLimited(gw, "coingecko", "/portfolio/holdings/import", importHandler(gw)))
	r.Get("/fx/{base}/{quote}", rateLimited(gw, "fx", "/fx", fxHandler(gw)))
	r.Get("/onchain/eth/gas", rateLimited(gw, "etherscan", "/onchain/eth/gas", gasHandler(gw)))
	r.Get("/onchain/btc/mempool", rateLimited(gw, "mempool_space", "/onchain/btc/mempool", mempoolHandler(gw)))
	r.Get("/metrics", rateLimited(gw, "coingecko", "/metrics", metricsHandler(gw).ServeHTTP))

	r.Post("/operator/breaker/{provider}/reset", operatorResetHandler(gw))

	return r
}

// requestLogMiddleware emits one structured log line per request,
// adapted from the teacher's dashboard request logging but using the
// shared zerolog logger and the request's trace id.
func requestLogMiddleware(gw *app.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			gw.Log.Info().
				Str("trace_id", TraceID(r)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
