package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/analyzer"
	"github.com/hyperjump/photostory/internal/chaptering"
	"github.com/hyperjump/photostory/internal/cli"
	"github.com/hyperjump/photostory/internal/config"
	"github.com/hyperjump/photostory/internal/export"
	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/ingest"
	"github.com/hyperjump/photostory/internal/keyword"
	"github.com/hyperjump/photostory/internal/metrics"
	"github.com/hyperjump/photostory/internal/objectstore"
	"github.com/hyperjump/photostory/internal/server"
	"github.com/hyperjump/photostory/internal/storage"
	"github.com/hyperjump/photostory/internal/watcher"
	"github.com/hyperjump/photostory/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). When neither exists the
// built-in defaults plus environment are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == cli.DefaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Components holds everything the server needs. Close releases what was opened.
type Components struct {
	Storage  storage.Storage
	Index    keyword.Index
	Metrics  *metrics.Collector
	Chapters *chaptering.Service
	Exporter *export.Exporter
	Uploads  objectstore.Issuer
	Ingester *ingest.Ingester
}

// Close releases the index and the store.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, Metrics: metrics.NewCollector()}

	a, err := analyzer.New(&cfg.Analyzer, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	if !cfg.Search.Disabled {
		idx, err := keyword.NewBleveIndex()
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		c.Index = idx
		if err := reindex(ctx, store, idx); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.Chapters = chaptering.NewService(store, a, chaptering.Options{
		MaxImageBytes:   cfg.Upload.MaxBytes,
		AnalysisTimeout: cfg.Analyzer.Timeout,
		Fetcher:         imaging.NewFetcher(nil, cfg.Upload.FetchTimeout, cfg.Upload.MaxBytes),
		Index:           c.Index,
		Metrics:         c.Metrics,
		Logger:          logger,
	})
	c.Exporter = export.NewExporter(store)
	c.Ingester = ingest.New(c.Chapters, c.Metrics, logger)
	c.Chapters.OnReset(c.Ingester.Reset)

	if cfg.ObjectStorage.Enabled() {
		issuer, err := objectstore.NewS3Issuer(ctx, &cfg.ObjectStorage)
		if err != nil {
			logger.Warn("upload URLs disabled", zap.Error(err))
		} else {
			c.Uploads = issuer
		}
	}

	if n, err := store.CountChapters(ctx); err == nil {
		c.Metrics.Chapters.Set(float64(n))
	}
	logger.Info("components initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("analyzer", cfg.Analyzer.Provider),
		zap.Bool("search", c.Index != nil),
		zap.Bool("uploads", c.Uploads != nil),
	)
	return c, nil
}

// reindex loads chapters that survived a restart (sqlite driver) into the in-memory index.
func reindex(ctx context.Context, store storage.Storage, idx keyword.Index) error {
	chapters, err := store.ListChapters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chapters for indexing: %w", err)
	}
	for _, ch := range chapters {
		if err := idx.Index(ctx, ch); err != nil {
			return fmt.Errorf("failed to index chapter %d: %w", ch.ChapterNumber, err)
		}
	}
	return nil
}

func runServer(ctx context.Context, configPath string, debug bool) error {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedPath), zap.Bool("debug", debugMode))

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	var watch *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watch = watcher.New(watcher.Config{
			Directories: cfg.Watch.Directories,
			Extensions:  cfg.Watch.Extensions,
			Recursive:   cfg.Watch.RecursiveOrDefault(),
		}, components.Ingester.Handle(ctx), logger)
		if err := watch.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		if cfg.Watch.SyncExisting {
			go watch.SyncExisting()
		}
	}

	srv := server.NewServer(
		components.Chapters,
		components.Exporter,
		components.Uploads,
		components.Metrics,
		cfg,
		logger,
	)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	if watch != nil {
		watch.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
