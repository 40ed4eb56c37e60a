package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brinkhaven/brinksmanship-server/internal/config"
	"github.com/brinkhaven/brinksmanship-server/internal/repository"
	"github.com/brinkhaven/brinksmanship-server/internal/scenario"
	"github.com/brinkhaven/brinksmanship-server/internal/server"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting brinksmanship server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret is not configured")
	}
	if cfg.Auth.AdminKeyHash == "" {
		logger.Warn("admin key not configured; admin endpoints disabled")
	}

	// Scenario content is validated in full at load time, so matrix
	// constraint and tag errors surface here, not mid-game.
	scn := scenario.Default()
	if cfg.Scenario.Path != "" {
		scn, err = scenario.Load(cfg.Scenario.Path)
		if err != nil {
			logger.Fatal("failed to load scenario", zap.Error(err))
		}
	}
	logger.Info("scenario loaded",
		zap.String("name", scn.Name),
		zap.Int("turns", len(scn.Turns)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	var store *repository.GameStore
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := repository.EnsureSchema(ctx, db); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}
		store = repository.NewGameStore(db)
	} else {
		logger.Warn("no database configured; games are in-memory only")
	}

	srv := server.New(server.Options{
		Config:   cfg,
		Logger:   logger,
		Scenario: scn,
		Store:    store,
	})

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("brinksmanship server stopped")
}

// initLogger initializes the zap logger based on configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
