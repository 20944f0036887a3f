// Package config loads typed runtime settings from the process environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

/*
CONFIGURATION DESIGN

Settings are read once at startup and never mutated afterward. A missing
required variable or an invalid value for a declared type fails fast —
there is no silent fallback to a guessed default for anything security
or connectivity relevant. DEBUG is the one lenient setting: 1, true, t,
yes or on (in any case) read as true, and every other value reads as
false.

A .env file is loaded first, if present, purely for local development
convenience; real process environment variables always take precedence
over it.
*/

// Settings holds typed configuration for the gateway process.
type Settings struct {
	APIHost             string
	APIPort             int
	RedisURL            string
	Debug               bool
	EtherscanAPIKey     string
	MempoolSpaceAPIKey  string
}

// Load reads and validates settings from the environment.
//
// API_HOST must resolve to a loopback address; the gateway is never meant
// to bind to a public interface directly (it sits behind an internal
// reverse proxy in deployment).
func Load() (Settings, error) {
	_ = godotenv.Load()

	host, err := getenv("API_HOST", withDefault("127.0.0.1"))
	if err != nil {
		return Settings{}, err
	}
	if err := requireLoopback(host); err != nil {
		return Settings{}, err
	}

	portStr, err := getenv("API_PORT", withDefault("8000"))
	if err != nil {
		return Settings{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid value for API_PORT: %w", err)
	}

	redisURL, err := getenv("REDIS_URL", required())
	if err != nil {
		return Settings{}, err
	}

	debugStr, err := getenv("DEBUG", withDefault("0"))
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		APIHost:            host,
		APIPort:            port,
		RedisURL:           redisURL,
		Debug:              parseBool(debugStr),
		EtherscanAPIKey:    os.Getenv("ETHERSCAN_API_KEY"),
		MempoolSpaceAPIKey: os.Getenv("MEMPOOL_SPACE_API_KEY"),
	}, nil
}

type getenvOpt struct {
	def      string
	hasDef   bool
	required bool
}

func withDefault(d string) func(*getenvOpt) { return func(o *getenvOpt) { o.def = d; o.hasDef = true } }
func required() func(*getenvOpt)            { return func(o *getenvOpt) { o.required = true } }

func getenv(name string, opts ...func(*getenvOpt)) (string, error) {
	var o getenvOpt
	for _, f := range opts {
		f(&o)
	}
	raw, ok := os.LookupEnv(name)
	if !ok {
		if o.required {
			return "", fmt.Errorf("%s environment variable is required", name)
		}
		return o.def, nil
	}
	return raw, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "on":
		return true
	default:
		return false
	}
}

func requireLoopback(host string) error {
	ip := net.ParseIP(host)
	if ip != nil && ip.IsLoopback() {
		return nil
	}
	if host == "localhost" {
		return nil
	}
	return fmt.Errorf("API_HOST must be a loopback address, got %q", host)
}
