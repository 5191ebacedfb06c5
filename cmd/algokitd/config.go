package main

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/kwertop/algokit/hash"
)

type config struct {
	host      string
	port      int
	redisURL  string
	hashKind  hash.Kind
	logFormat string
	logLevel  slog.Level
	rateLimit float64
}

func (c config) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// loadConfig reads the daemon settings through getenv.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		host:      "127.0.0.1",
		port:      5000,
		redisURL:  getenv("ALGOKIT_REDIS_URL"),
		logFormat: "text",
		logLevel:  slog.LevelInfo,
	}
	if v := getenv("HOST"); v != "" {
		cfg.host = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return config{}, fmt.Errorf("algokitd: invalid PORT %q", v)
		}
		cfg.port = port
	}

	kind, err := hash.ParseKind(getenv("ALGOKIT_HASH"))
	if err != nil {
		return config{}, fmt.Errorf("algokitd: ALGOKIT_HASH: %w", err)
	}
	cfg.hashKind = kind

	switch v := strings.ToLower(getenv("ALGOKIT_LOG_FORMAT")); v {
	case "", "text":
	case "json":
		cfg.logFormat = v
	default:
		return config{}, fmt.Errorf("algokitd: invalid ALGOKIT_LOG_FORMAT %q", v)
	}
	if v := getenv("ALGOKIT_LOG_LEVEL"); v != "" {
		if err := cfg.logLevel.UnmarshalText([]byte(v)); err != nil {
			return config{}, fmt.Errorf("algokitd: invalid ALGOKIT_LOG_LEVEL %q", v)
		}
	}

	if v := getenv("ALGOKIT_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit < 0 {
			return config{}, fmt.Errorf("algokitd: invalid ALGOKIT_RATE_LIMIT %q", v)
		}
		cfg.rateLimit = limit
	}
	return cfg, nil
}
