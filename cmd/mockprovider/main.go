// Command mockprovider is a local stand-in for CoinGecko, Etherscan,
// and mempool.space: it serves the candle, gas and mempool paths the
// provider clients request, in their response shapes. Provider clients
// constructed with its address as their base URL reach it; the gateway
// binary itself always uses the providers' public base URLs.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"
)

func main() {
	addr := flag.String("addr", ":9100", "listen address")
	flag.Parse()

	mux := http.NewServeMux()

	mux.HandleFunc("/candles/", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Unix()
		writeJSON(w, []map[string]any{
			{"t": now, "o": 100.0, "h": 101.0, "l": 99.0, "c": 100.5, "v": 1000.0, "resolution": "1h", "asof": float64(now)},
		})
	})

	mux.HandleFunc("/gas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"safe": 20.0, "propose": 25.0, "fast": 30.0})
	})

	mux.HandleFunc("/mempool", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"txs": 4200, "size": 8_400_000})
	})

	log.Printf("mock provider listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("mock provider error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
