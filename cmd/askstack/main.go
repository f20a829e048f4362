package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/askstack/askstack/pkg/auth"
	"github.com/askstack/askstack/pkg/config"
	"github.com/askstack/askstack/pkg/gateway"
	"github.com/askstack/askstack/pkg/logging"
	"github.com/askstack/askstack/pkg/moderation"
	"github.com/askstack/askstack/pkg/service"
	"github.com/askstack/askstack/pkg/storage/postgres"
)

func main() {
	configPath := flag.String("config", "askstack.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet; write plainly and bail.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger *logging.ColoredLogger
	if cfg.Logging.File != "" {
		logger, err = logging.NewFileLogger(logging.ComponentGeneral, cfg.Logging.File, false)
	} else {
		logger, err = logging.NewColoredLoggerWithLevel(logging.ComponentGeneral, cfg.Logging.Colors, cfg.Logging.Level)
	}
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		logger.ComponentError(logging.ComponentStorage, "failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()
	logger.ComponentInfo(logging.ComponentStorage, "connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))

	mod := moderation.NewClient(cfg.Moderation, logger)
	authMgr := auth.NewManager(store, cfg.Auth, logger)
	qa := service.NewQAService(store, mod, logger)
	g := gateway.NewGateway(cfg.Server, logger, qa, authMgr, store)

	go authMgr.RunSweeper(ctx)

	go func() {
		if err := g.Start(); err != nil {
			logger.ComponentError(logging.ComponentServer, "http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.ComponentInfo(logging.ComponentGeneral, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := g.Shutdown(shutdownCtx); err != nil {
		logger.ComponentError(logging.ComponentServer, "shutdown error", zap.Error(err))
	}
	logger.ComponentInfo(logging.ComponentGeneral, "shutdown complete")
}
