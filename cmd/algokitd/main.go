// Command algokitd serves the algokit toolkit over HTTP.
//
// Configuration comes from the environment:
//
//	HOST                 listen host (127.0.0.1)
//	PORT                 listen port (5000)
//	ALGOKIT_REDIS_URL    redis:// URI; backs the membership filter and enables /ping-redis
//	ALGOKIT_HASH         hash family: blake2b, xxh3, xxhash, murmur3 or metro
//	ALGOKIT_LOG_FORMAT   text or json
//	ALGOKIT_LOG_LEVEL    debug, info, warn or error
//	ALGOKIT_RATE_LIMIT   requests per second, 0 for unlimited
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/bitset"
	"github.com/kwertop/algokit/hash"
	"github.com/kwertop/algokit/internal/server"
	"github.com/kwertop/algokit/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}

	logger := algokit.NewTextLogger(cfg.logLevel)
	if cfg.logFormat == "json" {
		logger = algokit.NewJSONLogger(cfg.logLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithHashFamily(hash.New(cfg.hashKind)),
	}
	var srvOpts []server.Option
	var client *redis.Client
	if cfg.redisURL != "" {
		connOptions, err := algokit.ParseRedisURI(cfg.redisURL)
		if err != nil {
			return err
		}
		client = algokit.NewRedisClient(*connOptions)
		defer client.Close()
		if _, err := algokit.PingRedis(ctx, client); err != nil {
			return err
		}
		svcOpts = append(svcOpts, service.WithBitSetFactory(bitset.RedisFactory(client)))
		srvOpts = append(srvOpts, server.WithRedis(client))
	}

	svc, err := service.New(svcOpts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	srvOpts = append(srvOpts,
		server.WithLogger(logger),
		server.WithRateLimit(cfg.rateLimit),
	)
	httpServer := &http.Server{
		Addr:              cfg.addr(),
		Handler:           server.New(svc, srvOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			"addr", httpServer.Addr,
			"hash", cfg.hashKind,
			"bitset", backendName(client),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func backendName(client *redis.Client) string {
	if client != nil {
		return algokit.RedisBitSet.String()
	}
	return algokit.InMemoryBitSet.String()
}
