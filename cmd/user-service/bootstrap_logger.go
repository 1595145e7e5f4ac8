package main

import (
	"go.uber.org/zap"

	config "github.com/streamtube/backend/internal/config/user-service"
	"github.com/streamtube/backend/internal/obs"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(&cfg.App))
}
