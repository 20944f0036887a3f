package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptobff-gateway/internal/apierror"
	"cryptobff-gateway/internal/app"
	"cryptobff-gateway/internal/breaker"
	"cryptobff-gateway/internal/operator"
	"cryptobff-gateway/internal/providers"
)

var (
	assetIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProviderError maps an outbound provider failure to the API's
// error envelope: an open breaker surfaces as a throttled response,
// anything else as an internal error.
func writeProviderError(w http.ResponseWriter, err error, traceID string) {
	if err == breaker.ErrOpen {
		apierror.Write(w, apierror.Throttled("provider temporarily unavailable"), traceID)
		return
	}
	apierror.Write(w, apierror.Internal("upstream provider call failed"), traceID)
}

// healthHandler reports liveness, pinging the coordination backend so
// a degraded backend surfaces as degraded rather than a silent ok.
func healthHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if err := gw.Backend.Ping(r.Context()); err != nil {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}

// capabilitiesHandler derives feature flags from the presence of
// provider API keys, mirroring main.py's get_capabilities_data.
func capabilitiesHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"eth_gas": map[string]bool{
				"enabled": gw.Config.EtherscanAPIKey != "",
			},
			"btc_mempool": map[string]bool{
				"enabled": gw.Config.MempoolSpaceAPIKey != "",
			},
		})
	}
}

func candlesHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := TraceID(r)
		assetID := chi.URLParam(r, "asset_id")
		if !assetIDPattern.MatchString(assetID) {
			apierror.Write(w, apierror.InvalidContract("invalid asset_id"), traceID)
			return
		}

		var candles []providers.Candle
		err := gw.CoinGeckoCaller.Call(r.Context(), traceID, func(ctx context.Context) error {
			var callErr error
			candles, callErr = gw.CoinGecko.GetCandles(ctx, assetID)
			return callErr
		})
		if err != nil {
			writeProviderError(w, err, traceID)
			return
		}
		writeJSON(w, http.StatusOK, candles)
	}
}

func fxHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := TraceID(r)
		base := chi.URLParam(r, "base")
		quote := chi.URLParam(r, "quote")
		if !currencyPattern.MatchString(base) || !currencyPattern.MatchString(quote) {
			apierror.Write(w, apierror.InvalidContract("base and quote must be 3 uppercase letters"), traceID)
			return
		}

		var rate float64
		err := gw.FXCaller.Call(r.Context(), traceID, func(ctx context.Context) error {
			rate = providers.DeterministicRate(base, quote)
			return nil
		})
		if err != nil {
			writeProviderError(w, err, traceID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"base": base, "quote": quote, "rate": rate})
	}
}

func gasHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := TraceID(r)
		var gas providers.GasPrices
		err := gw.EtherscanCaller.Call(r.Context(), traceID, func(ctx context.Context) error {
			var callErr error
			gas, callErr = gw.Etherscan.GetGasPrices(ctx)
			return callErr
		})
		if err != nil {
			writeProviderError(w, err, traceID)
			return
		}
		writeJSON(w, http.StatusOK, gas)
	}
}

func mempoolHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := TraceID(r)
		var data providers.MempoolData
		err := gw.MempoolCaller.Call(r.Context(), traceID, func(ctx context.Context) error {
			var callErr error
			data, callErr = gw.Mempool.GetMempool(ctx)
			return callErr
		})
		if err != nil {
			writeProviderError(w, err, traceID)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// operatorResetHandler handles the breaker reset control endpoint. It
// is mounted outside the rate-limit gate per spec.md §6.
func operatorResetHandler(gw *app.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := TraceID(r)
		if !operator.CheckBearer(r) {
			apierror.Write(w, apierror.Unauthorized("invalid operator token"), traceID)
			return
		}

		provider := chi.URLParam(r, "provider")
		b, err := gw.Breakers.Get(provider)
		if err != nil {
			apierror.Write(w, apierror.UnknownProvider("unknown provider: "+provider), traceID)
			return
		}

		b.Reset(traceID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}

// metricsHandler renders the gateway's Prometheus registry as the
// /metrics text body.
func metricsHandler(gw *app.Gateway) http.Handler {
	return promhttp.HandlerFor(gw.Metrics.Registry(), promhttp.HandlerOpts{})
}
