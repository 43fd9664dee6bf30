package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockwatch/blockwatch/internal/adapter/firewall"
	httpadapter "github.com/blockwatch/blockwatch/internal/adapter/http"
	"github.com/blockwatch/blockwatch/internal/adapter/persistence"
	"github.com/blockwatch/blockwatch/internal/config"
	"github.com/blockwatch/blockwatch/internal/ports"
	"github.com/blockwatch/blockwatch/internal/resolver"
	"github.com/blockwatch/blockwatch/internal/service/auth"
	"github.com/blockwatch/blockwatch/internal/service/ratelimit"
	"github.com/blockwatch/blockwatch/internal/sweeper"
	"github.com/blockwatch/blockwatch/internal/usecase"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

// Version and build information
var (
	Version   = "development"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	var (
		version = flag.Bool("version", false, "Show version information")
		migrate = flag.Bool("migrate", false, "Run database migrations and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("blockwatch firewall blocklist manager\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := setupLogging(cfg)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"storage": cfg.Storage.Driver,
	}).Info("starting blockwatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		entryRepo    ports.EntryRepository
		auditRepo    ports.AuditRepository
		settingsRepo ports.SettingsRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := initDatabase(cfg)
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize database")
		}
		defer db.Close()

		if *migrate {
			if err := persistence.Migrate(db); err != nil {
				logger.WithError(err).Fatal("failed to run migrations")
			}
			logger.Info("migrations completed successfully")
			os.Exit(0)
		}
		entryRepo = persistence.NewPostgresEntryRepository(db)
		auditRepo = persistence.NewPostgresAuditRepository(db)
		settingsRepo = persistence.NewPostgresSettingsRepository(db)
	default:
		if *migrate {
			logger.Info("memory storage needs no migrations")
			os.Exit(0)
		}
		entryRepo = persistence.NewMemoryEntryRepository()
		auditRepo = persistence.NewMemoryAuditRepository()
		settingsRepo = persistence.NewMemorySettingsRepository()
	}

	var res ports.Resolver
	if cfg.Resolver.Backend == "dns" {
		res = resolver.NewDNSResolver(cfg.Resolver.Server, cfg.Resolver.Timeout)
	} else {
		res = resolver.NewStaticResolver()
	}

	firewallClient := firewall.NewPaloAltoClient(firewall.Config{
		AddLatency:     cfg.Firewall.AddLatency,
		RemoveLatency:  cfg.Firewall.RemoveLatency,
		AddFailureRate: cfg.Firewall.AddFailureRate,
	}, logger)

	entryUC := usecase.NewEntryUseCase(entryRepo, auditRepo, settingsRepo, firewallClient, res, logger)
	edlUC := usecase.NewEDLUseCase(entryRepo, settingsRepo)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo)

	authSvc := auth.NewService(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.AdminPasswordHash)

	limiter, err := ratelimit.NewService(ratelimit.Config{
		Enabled:  cfg.Security.RateLimitEnabled,
		RedisURL: cfg.Security.RedisURL,
		Requests: cfg.Security.RateLimitRequests,
		Window:   cfg.Security.RateLimitWindow,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize rate limiter")
	}

	sw := sweeper.New(entryUC, cfg.Sweeper.Interval, logger)
	go sw.Run(ctx)

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, entryUC, edlUC, settingsUC, authSvc, limiter, logger)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("error during server shutdown")
	}
	logger.Info("stopped")
}

func setupLogging(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetOutput(os.Stdout)
	return logger
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
