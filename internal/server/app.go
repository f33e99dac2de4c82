// Package server wires the project store into a process: it opens the
// repositories and blob stores selected by the configuration, migrates the
// schema, sweeps expired tokens in the background and serves gRPC health
// until it receives a termination signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/blobstore"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophstore/internal/server/storage"

	gs "github.com/dmitrijs2005/gophstore/internal/server/grpc"
)

const sweepEvery = time.Minute

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	store  *storage.Store
}

// NewApp builds the store described by c and migrates its schema.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := repomanager.Open(c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		repos.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	blobs, err := blobstore.Open(ctx, c, c.S3Bucket, logger)
	if err != nil {
		repos.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	archive, err := blobstore.Open(ctx, c, c.S3ArchiveBucket, logger)
	if err != nil {
		repos.Close()
		return nil, fmt.Errorf("archive store init error: %w", err)
	}

	store, err := storage.New(storage.Options{
		Manager: repos,
		Blobs:   blobs,
		Archive: archive,
		Config:  c,
		Logger:  logger,
	})
	if err != nil {
		repos.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, repos: repos, store: store}, nil
}

// Store returns the engine the app serves.
func (app *App) Store() *storage.Store {
	return app.store
}

// Close releases the repositories.
func (app *App) Close() error {
	return app.repos.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.store.Ping)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// sweep deletes expired nonces and reset tokens, one batch of each per tick.
func (app *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sweepOnce(ctx)
		}
	}
}

func (app *App) sweepOnce(ctx context.Context) {
	if n, err := app.store.CleanupNonces(ctx); err != nil {
		app.logger.Warn(ctx, "nonce sweep failed", "error", err)
	} else if n > 0 {
		app.logger.Debug(ctx, "nonces swept", "count", n)
	}

	if n, err := app.store.CleanupExpiredResetTokens(ctx); err != nil {
		app.logger.Warn(ctx, "reset token sweep failed", "error", err)
	} else if n > 0 {
		app.logger.Debug(ctx, "reset tokens swept", "count", n)
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sweep(ctx)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
