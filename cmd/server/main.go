package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/cache"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/internal/config"
	"github.com/me/cinedex/internal/events"
	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/internal/logging"
	"github.com/me/cinedex/internal/seed"
	"github.com/me/cinedex/internal/server"
	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/internal/supervisor"
	"github.com/me/cinedex/internal/ui"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file (default $CINEDEX_CONFIG)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	dbDriver := flag.String("db-driver", "", "Database driver (sqlite, mysql, postgres)")
	dbDSN := flag.String("db", "", "Database DSN; for sqlite a file path (default ~/.cinedex/cinedex.db)")
	seedFile := flag.String("seed", "", "YAML fixture file loaded at startup")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	override(&cfg.Addr, *addr)
	override(&cfg.LogLevel, *logLevel)
	override(&cfg.LogFormat, *logFormat)
	override(&cfg.DB.Driver, *dbDriver)
	override(&cfg.DB.DSN, *dbDSN)
	override(&cfg.SeedFile, *seedFile)
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func run(cfg config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open store and run migrations.
	dialect, err := store.ParseDialect(cfg.DB.Driver)
	if err != nil {
		return err
	}
	dsn := cfg.DB.DSN
	if dsn == "" && dialect == store.DialectSQLite {
		if dsn, err = defaultDBPath(); err != nil {
			return err
		}
	}
	st, err := store.Open(dialect, dsn, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", "driver", dialect)

	tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())

	// Cache backend.
	var backend cache.Store
	switch cfg.Cache.Backend {
	case "memory":
		mem := cache.NewMemoryStore(cfg.Cache.Sweep)
		tree.AddDataService(mem)
		backend = mem
	case "badger":
		bs, err := cache.OpenBadger(cfg.Cache.BadgerPath, logger)
		if err != nil {
			return fmt.Errorf("open badger cache: %w", err)
		}
		tree.AddDataService(bs)
		backend = bs
	}
	if backend != nil {
		backend = cache.NewBreakerStore(backend, cfg.Cache.Breaker, logger)
	}
	layer := cache.NewLayer(backend, cfg.Cache.TTL, logger)
	defer layer.Close()
	logger.Info("cache ready", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL)

	// Change events between instances.
	origin := uuid.NewString()
	var publisher events.Publisher = events.Nop{}
	if cfg.Events.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, origin, logger)
		defer publisher.Close()
	}

	svc := catalog.New(st, catalog.Options{
		Limits: listquery.Limits{
			DefaultPageSize: cfg.List.DefaultPageSize,
			MaxPageSize:     cfg.List.MaxPageSize,
		},
		Cache:     layer,
		Publisher: publisher,
	}, logger)

	if cfg.Events.Enabled() {
		tree.AddMessagingService(events.NewKafkaConsumer(
			cfg.Events.Brokers, cfg.Events.GroupID, cfg.Events.Topic, origin, svc.HandleEvent, logger))
		logger.Info("change events enabled", "topic", cfg.Events.Topic, "origin", origin)
	}

	if cfg.AdminBootstrap != "" {
		if err := svc.EnsureAdmin(ctx, cfg.AdminBootstrap); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	if cfg.SeedFile != "" {
		res, err := seed.File(ctx, svc, cfg.SeedFile)
		if err != nil {
			return err
		}
		logger.Info("seed applied", "file", cfg.SeedFile, "records", res.Total())
	}

	enf, err := authz.NewEnforcer()
	if err != nil {
		return fmt.Errorf("load authorization policy: %w", err)
	}

	sessions := ui.NewSessionManager(st, logger)
	tree.AddDataService(sessions)

	srv := server.New(cfg, svc, sessions, enf, logger, server.WithPinger(st))
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPServerService("http", httpServer, 5*time.Second))

	logger.Info("server starting", "addr", cfg.Addr, "version", server.Version)
	err = tree.Serve(ctx)
	if ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".cinedex")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "cinedex.db"), nil
}
