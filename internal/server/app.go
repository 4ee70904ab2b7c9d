// Package server assembles the application: configuration, logging,
// storage, services and the HTTP API, with signal-driven shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uchan-net/uchan/internal/logging"
	"github.com/uchan-net/uchan/internal/server/config"
	"github.com/uchan-net/uchan/internal/server/db"
	"github.com/uchan-net/uchan/internal/server/httpapi"
	"github.com/uchan-net/uchan/internal/server/media"
	"github.com/uchan-net/uchan/internal/server/sessions"
	"github.com/uchan-net/uchan/internal/server/users"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	manager, err := db.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := newMediaStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("media init error: %w", err)
	}

	userService := users.NewService(manager.Users(), manager.Boards(), manager.Universities(), cfg)
	sessionService := sessions.NewService(manager.Sessions())

	srv := httpapi.NewServer(cfg, logger.With("component", "http"),
		manager, userService, sessionService, store)

	return &App{config: cfg, logger: logger, server: srv}, nil
}

func newMediaStore(cfg *config.Config) (media.Store, error) {
	switch cfg.MediaBackend {
	case "s3":
		return media.NewS3Store(context.Background(), media.S3Options{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case "disk":
		return media.NewDiskStore(cfg.MediaDir)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
