/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory engine server: configuration,
  logging, persistence gateway, engine, router, graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (dev convenience) and LUMEN_* environment config
  2. Configure zerolog
  3. Open the selected persistence gateway (json, sqlite, or memory)
  4. Build the engine, restoring the previous snapshot if present
  5. Start the HTTP server

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Flush a final snapshot through the engine
  3. Close the gateway

EXAMPLES:
  # JSON file snapshot (default)
  LUMEN_DATA_PATH=./data/inventory.json ./server

  # SQLite
  LUMEN_STORE=sqlite LUMEN_DATA_PATH=./data/inventory.db ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lumen/inventory-engine/api"
	"github.com/lumen/inventory-engine/config"
	"github.com/lumen/inventory-engine/engine"
	"github.com/lumen/inventory-engine/inventory"
	"github.com/lumen/inventory-engine/store/jsonfile"
	"github.com/lumen/inventory-engine/store/memory"
	"github.com/lumen/inventory-engine/store/sqlite"
)

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg)

	gateway, closeGateway, err := newGateway(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	eng, err := engine.New(context.Background(), gateway, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize engine")
	}

	router := api.NewRouter(api.NewHandler(eng))
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("store", cfg.Store).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := eng.Close(ctx); err != nil {
		log.Error().Err(err).Msg("final snapshot flush failed")
	}
	if closeGateway != nil {
		if err := closeGateway(); err != nil {
			log.Error().Err(err).Msg("closing store failed")
		}
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if cfg.LogFormat == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		out = zerolog.New(os.Stdout)
	}
	return out.With().Timestamp().Str("service", "inventory-engine").Logger().Level(level)
}

func newGateway(cfg *config.Config) (inventory.Gateway, func() error, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		gw, err := sqlite.New(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Close, nil
	case config.StoreMemory:
		return memory.New(), nil, nil
	default:
		gw, err := jsonfile.New(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		return gw, nil, nil
	}
}
