package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/streamtube/backend/internal/config/user-service"
	"github.com/streamtube/backend/internal/obs"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := flag.String("config", "./config/user-service.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting user-service", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	db, err := initDB(rootCtx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Uploads.TempDir, 0o755); err != nil {
		logger.Fatal("create upload temp dir", zap.Error(err))
	}

	app, err := buildApp(rootCtx, cfg, logger, db)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}

	metricsSrv := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Pool.Ping, logger)

	httpErrCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		httpErrCh <- app.Listen(cfg.Server.HTTPAddr)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = app.ShutdownWithContext(shCtx)
	_ = metricsSrv.Shutdown(shCtx)

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}
