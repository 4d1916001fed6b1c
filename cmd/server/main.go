/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ledger engine server: configuration, store,
  domain services, HTTP router, graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (env / .env), apply flag overrides
  2. Open SQLite store (schema migrates on open)
  3. Seed the default chart of accounts when enabled
  4. Configure router and start serving

COMMAND-LINE FLAGS:
  -addr    listen address (overrides SERVER_ADDRESS)
  -db      SQLite database path (overrides DB_PATH; ":memory:" works)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the database.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/config"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

func main() {
	addrFlag := flag.String("addr", "", "listen address (overrides SERVER_ADDRESS)")
	dbFlag := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addrFlag != "" {
		cfg.ServerAddress = *addrFlag
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, ledger.RegistryPolicy{
		AllowCrossTypeParent:     cfg.Registry.AllowCrossTypeParent,
		DeactivateActivityWindow: cfg.Registry.DeactivateWindow(),
	})

	if cfg.SeedChart {
		if err := ledger.SeedChart(context.Background(), handler.Registry); err != nil {
			log.Fatalf("Failed to seed chart of accounts: %v", err)
		}
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.Printf("Ledger engine listening on %s (db: %s)", cfg.ServerAddress, cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
