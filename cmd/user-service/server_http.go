package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	appauth "github.com/streamtube/backend/internal/auth"
	config "github.com/streamtube/backend/internal/config/user-service"
	pg "github.com/streamtube/backend/internal/repository/postgres"
	"github.com/streamtube/backend/internal/repository/s3"
	"github.com/streamtube/backend/internal/services/user-service/auth"
	"github.com/streamtube/backend/internal/services/user-service/users"
	"github.com/streamtube/backend/internal/services/user-service/web"
)

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *pg.DB) (*fiber.App, error) {
	codec, err := appauth.NewCodec(appauth.CodecConfig{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher := appauth.NewHasher(cfg.Auth.BcryptCost)

	mediaStore, err := s3.NewMediaStore(ctx, cfg.Media, logger)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}

	userRepo := pg.NewUserRepo(db)
	subRepo := pg.NewSubscriptionRepo(db)

	authUC := auth.NewUsecase(userRepo, userRepo, codec, hasher)
	authCtrl := auth.NewController(authUC, logger, auth.CookieOpts{
		Domain:     cfg.Auth.CookieDomain,
		Path:       cfg.Auth.CookiePath,
		Secure:     cfg.Auth.CookieSecure,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	usersUC := users.NewUsecase(userRepo, subRepo, mediaStore, hasher, logger)
	usersCtrl := users.NewController(usersUC, logger, cfg.Uploads.TempDir)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: web.ErrorHandler(logger),
	})

	registerRoutes(app, authUC, authCtrl, usersCtrl)
	return app, nil
}

func registerRoutes(app *fiber.App, authUC *auth.Usecase, authCtrl *auth.Controller, usersCtrl *users.Controller) {
	v1 := app.Group("/api/v1/users")

	v1.Post("/register", usersCtrl.Register)
	v1.Post("/login", authCtrl.Login)
	v1.Post("/refresh-token", authCtrl.Refresh)

	gate := auth.Middleware(authUC)
	v1.Post("/logout", gate, authCtrl.Logout)
	v1.Post("/change-password", gate, authCtrl.ChangePassword)
	v1.Get("/get-user", gate, usersCtrl.GetUser)
	v1.Patch("/update-avatar", gate, usersCtrl.UpdateAvatar)
	v1.Patch("/update-detail", gate, usersCtrl.UpdateDetails)
	v1.Patch("/update-profile", gate, usersCtrl.UpdateProfile)
	v1.Get("/get-channel-profile/:username", gate, usersCtrl.ChannelProfile)
}
