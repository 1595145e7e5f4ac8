package main

import (
	"context"

	config "github.com/streamtube/backend/internal/config/user-service"
	pg "github.com/streamtube/backend/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.New(ctx, cfg.DB)
}
