package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"cryptobff-gateway/internal/app"
	"cryptobff-gateway/internal/config"
	"cryptobff-gateway/internal/httpapi"
	"cryptobff-gateway/internal/logging"
	"cryptobff-gateway/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Debug)

	backend, err := ratelimit.NewRedisBackend(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to coordination backend")
	}
	defer backend.Close()

	gw := app.New(cfg, backend, log)
	router := httpapi.NewRouter(gw)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("gateway listening")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}
