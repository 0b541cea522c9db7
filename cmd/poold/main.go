// main.go - Shielded pool daemon entry point
//
// Loads configuration, opens the journal, wires the verifiers and the
// pool, and serves the REST API until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shieldedpool/internal/htlc"
	"shieldedpool/internal/merkletree"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/verifier"
)

const version = "0.2.0"

func main() {
	configPath := flag.String("config", "poold.json", "path to configuration file")
	logLevel := flag.String("log-level", "", "override configured log level")
	listenAddr := flag.String("listen", "", "override configured listen address")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := NewLogger(cfg.LogLevel)
	log.Info().Str("version", version).Str("config", *configPath).Msg("starting pool daemon")

	withdrawVK, err := verifier.LoadVerifyingKey(cfg.WithdrawVKPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.WithdrawVKPath).Msg("load withdraw verifying key")
	}
	transferVK, err := verifier.LoadVerifyingKey(cfg.TransferVKPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TransferVKPath).Msg("load transfer verifying key")
	}
	withdrawVerifier, err := verifier.NewGnark(withdrawVK, verifier.WithdrawalInputs)
	if err != nil {
		log.Fatal().Err(err).Msg("build withdraw verifier")
	}
	transferVerifier := verifier.NewGnarkConsistency(transferVK)

	store, err := pool.OpenLevelStore(cfg.StorePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StorePath).Msg("open pool store")
	}

	book := pool.NewBook()
	p, err := pool.New(pool.Config{
		Store:            store,
		Payer:            book,
		WithdrawVerifier: withdrawVerifier,
		TransferVerifier: transferVerifier,
		Relayers:         cfg.RelayerAddresses(),
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize pool")
	}
	defer p.Close()
	log.Info().
		Str("root", p.Root().Hex()).
		Uint32("next_index", p.NextIndex()).
		Msg("pool state loaded")

	metrics := NewMetricsCollector()
	health := NewHealthChecker(version)
	health.RegisterComponent("tree", func() error {
		stats := p.Stats()
		metrics.SetGauge("tree_leaves", float64(stats.NextIndex))
		if uint64(stats.NextIndex) >= 1<<merkletree.Depth {
			return errors.New("tree at capacity")
		}
		return nil
	})
	health.RegisterComponent("store", p.CheckJournal)
	health.RegisterComponent("verifier", func() error {
		// An empty input vector must be rejected as malformed; anything
		// else means the verifier stack is misbehaving.
		if _, err := withdrawVerifier.Verify(nil, nil); !errors.Is(err, verifier.ErrInvalidPublicInput) {
			return errors.New("withdraw verifier input validation broken")
		}
		return nil
	})

	limiter := NewRateLimiter(cfg.RateLimitBurst, cfg.RateLimitPerSec, time.Second)
	api := NewAPI(p, htlc.NewRegistry(), limiter, metrics, health, log)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
