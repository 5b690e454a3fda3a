// Package server initializes and runs the FixHost application server: it
// opens the database and blob storage backends, wires the services and the
// HTTP API together, and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixhost/fixhost/internal/imagex"
	"github.com/fixhost/fixhost/internal/logging"
	"github.com/fixhost/fixhost/internal/picker"
	"github.com/fixhost/fixhost/internal/server/config"
	"github.com/fixhost/fixhost/internal/server/httpapi"
	"github.com/fixhost/fixhost/internal/server/repositories/repomanager"
	"github.com/fixhost/fixhost/internal/server/services"
	"github.com/fixhost/fixhost/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	api    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rm, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blobs, err := storage.NewS3Store(ctx, storage.S3Config{
		User:         cfg.S3User,
		Password:     cfg.S3Password,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("blob storage init error: %w", err)
	}

	opts := imagex.Options{MaxSide: cfg.MaxImageSide, Quality: cfg.JPEGQuality}

	ticketSvc := services.NewTicketService(rm.Tickets(), rm.Updates(), rm)
	photoSvc := services.NewPhotoService(rm.Tickets(), rm.Updates(), blobs,
		picker.NewPreviewStore(), opts, cfg.MaxPhotos, logger)
	userSvc := services.NewUserService(rm.Users(), cfg)
	roomSvc := services.NewRoomService(rm.Rooms())

	api := httpapi.NewServer(cfg, logger, ticketSvc, photoSvc, userSvc, roomSvc)

	return &App{config: cfg, logger: logger, repos: rm, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until ctx is cancelled or a termination signal
// arrives, then drains in-flight requests and closes the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.HTTPAddr,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
	}

	if err := app.repos.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err.Error())
	}

	return nil
}
