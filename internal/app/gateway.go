// Package app composes the provider-governance singletons (bucket
// registry, clamp, breaker registry, idempotency cache, provider
// clients) into a single object injected into HTTP handlers —
// encapsulating process-wide state without hidden globals.
package app

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"cryptobff-gateway/internal/breaker"
	"cryptobff-gateway/internal/config"
	"cryptobff-gateway/internal/idempotency"
	"cryptobff-gateway/internal/metrics"
	"cryptobff-gateway/internal/providers"
	"cryptobff-gateway/internal/ratelimit"
)

// Gateway holds every governance-core singleton plus the provider
// clients and collaborators handlers need.
type Gateway struct {
	Config config.Settings
	Log    zerolog.Logger

	Backend   ratelimit.Backend
	Buckets   *ratelimit.Registry
	Clamp     *ratelimit.Clamp
	Gate      *ratelimit.Gate
	Breakers  *breaker.Registry
	Idempotent *idempotency.Cache
	Metrics   *metrics.Collector

	CoinGecko *providers.CoinGeckoClient
	Etherscan *providers.EtherscanClient
	Mempool   *providers.MempoolSpaceClient

	CoinGeckoCaller *providers.Caller
	EtherscanCaller *providers.Caller
	MempoolCaller   *providers.Caller
	FXCaller        *providers.Caller

	StartedAt time.Time
}

// Providers lists every provider name the gateway governs. Declared
// once and reused for startup registration of buckets and breakers.
var Providers = []string{"coingecko", "etherscan", "mempool_space", "fx"}

// New wires a Gateway from settings and an already-constructed
// coordination backend. Every provider's breaker opens after 5
// consecutive failures and admits a probe 30s after opening; the
// breaker tests use smaller values (for example threshold 1, probe 10s).
func New(cfg config.Settings, backend ratelimit.Backend, log zerolog.Logger) *Gateway {
	buckets := ratelimit.NewRegistry()
	buckets.Init(backend, ratelimit.DefaultBudgets())

	clamp := ratelimit.NewClamp()
	gate := ratelimit.NewGate(buckets, clamp)

	collector := metrics.NewCollector()

	breakers := breaker.NewRegistry()
	for _, p := range Providers {
		b := breaker.New(5, 30*time.Second, log)
		provider := p
		b.SetOnOpen(func() { collector.RecordBreakerOpen(provider) })
		breakers.Register(p, b)
	}

	httpClient := &http.Client{Timeout: providers.DefaultTimeout}

	coinGeckoBreaker, _ := breakers.Get("coingecko")
	etherscanBreaker, _ := breakers.Get("etherscan")
	mempoolBreaker, _ := breakers.Get("mempool_space")
	fxBreaker, _ := breakers.Get("fx")

	gw := &Gateway{
		Config:    cfg,
		Log:       log,
		Backend:   backend,
		Buckets:   buckets,
		Clamp:     clamp,
		Gate:      gate,
		Breakers:  breakers,
		Idempotent: idempotency.NewCache(),
		Metrics:   collector,

		CoinGecko: providers.NewCoinGeckoClient("", httpClient),
		Etherscan: providers.NewEtherscanClient("", cfg.EtherscanAPIKey, httpClient),
		Mempool:   providers.NewMempoolSpaceClient("", cfg.MempoolSpaceAPIKey, httpClient),

		CoinGeckoCaller: providers.NewCaller("coingecko", coinGeckoBreaker, clamp),
		EtherscanCaller: providers.NewCaller("etherscan", etherscanBreaker, clamp),
		MempoolCaller:   providers.NewCaller("mempool_space", mempoolBreaker, clamp),
		FXCaller:        providers.NewCaller("fx", fxBreaker, clamp),

		StartedAt: time.Now(),
	}
	return gw
}
