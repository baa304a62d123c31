// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/signumlab/signum/internal/adapters/boundary"
	"github.com/signumlab/signum/internal/adapters/detector"
	"github.com/signumlab/signum/internal/adapters/exif"
	"github.com/signumlab/signum/internal/adapters/export"
	httpAdapter "github.com/signumlab/signum/internal/adapters/http"
	"github.com/signumlab/signum/internal/adapters/metrics"
	"github.com/signumlab/signum/internal/adapters/storage"
	tlsAdapter "github.com/signumlab/signum/internal/adapters/tls"
	"github.com/signumlab/signum/internal/adapters/watcher"
	"github.com/signumlab/signum/internal/application"
	"github.com/signumlab/signum/internal/config"
	"github.com/signumlab/signum/internal/domain"
	"github.com/signumlab/signum/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	BoundaryIndex *boundary.Index
	Detector      *detector.Client
	Records       *application.RecordStore
	Attribution   *application.AttributionService
	Batch         *application.BatchService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	var metricsCollector output.MetricsCollector = &output.NoOpMetrics{}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("signum")
		metricsCollector = app.Metrics
	}

	// Initialize storage adapter
	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = store

	// Initialize the boundary index; the dataset itself loads in Start.
	app.BoundaryIndex = boundary.NewIndex(cfg.Boundary.LabelColumn, cfg.Boundary.Layer)

	// Initialize the detection client
	app.Detector = detector.NewClient(
		cfg.Detector.Endpoint,
		cfg.Detector.HealthPath,
		cfg.Detector.Timeout,
		logger,
	)

	// Initialize application services
	app.Records = application.NewRecordStore(export.NewCSVWriter(), metricsCollector, logger)
	app.Attribution = application.NewAttributionService(app.BoundaryIndex, cfg.Boundary.LookupTimeout, metricsCollector, logger)
	app.Batch = application.NewBatchService(
		app.Detector,
		exif.NewExtractor(logger),
		app.Attribution,
		app.Records,
		metricsCollector,
		logger,
		cfg.Batch.EventsBuffer,
	)
	app.HealthService = application.NewHealthService(app.BoundaryIndex, app.Detector, app.Records)

	// The HTTP surface reads run state from /batch/status, so nothing
	// else consumes the event stream. Drain it here or the buffer fills
	// and later events are dropped.
	go app.consumeBatchEvents()

	// Initialize HTTP server
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.Batch,
		app.Records,
		app.Attribution,
		app.HealthService,
		logger,
	)

	if cfg.Metrics.Enabled {
		router := app.HTTPServer.Router()
		router.Use(app.Metrics.Middleware)
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// Initialize TLS server if enabled
	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Enabled:  cfg.TLS.Enabled,
				Domains:  cfg.TLS.Domains,
				Email:    cfg.TLS.Email,
				CacheDir: cfg.TLS.CacheDir,
				Staging:  cfg.TLS.Staging,
				DNS: tlsAdapter.DNSConfig{
					SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
					ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
					ClientID:          cfg.TLS.DNS.ClientID,
				},
			},
			app.HTTPServer.Router(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	// Initialize the inbox watcher for automatic staging
	if cfg.Batch.WatchInbox {
		w, err := watcher.New(
			watcher.Config{
				Paths: []string{cfg.Batch.InboxDir},
			},
			app.handleInboxEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize inbox watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	// Fetch and load the boundary dataset. The service degrades to
	// sentinel subdistricts without it, so a failure is not fatal.
	if err := a.loadBoundaryDataset(ctx); err != nil {
		a.Logger.Warn("boundary dataset unavailable, lookups degrade to Unknown", "error", err)
	}
	if a.Metrics != nil {
		a.Metrics.SetDatasetReady(a.BoundaryIndex.Ready())
	}

	// Start inbox watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start inbox watcher", "error", err)
		}
	}

	// Start server
	if a.Config.TLS.Enabled && a.TLSServer != nil {
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Cancel any active run before closing the batch service.
	if a.Batch.Status(ctx).State == domain.BatchRunning {
		_ = a.Batch.Cancel(ctx)
	}
	a.Batch.Close()

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	// Release the boundary index
	if err := a.BoundaryIndex.Close(); err != nil {
		a.Logger.Error("boundary index close error", "error", err)
	}

	return nil
}

// loadBoundaryDataset fetches the dataset artifact from object storage
// into the cache directory and loads it into the spatial index.
func (a *App) loadBoundaryDataset(ctx context.Context) error {
	key := a.Config.Boundary.Key

	exists, err := a.Storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("checking dataset %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("dataset %s not found in storage", key)
	}

	if err := os.MkdirAll(a.Config.Boundary.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	localPath := filepath.Join(a.Config.Boundary.CacheDir, filepath.Base(key))
	if err := a.Storage.Download(ctx, key, localPath); err != nil {
		return fmt.Errorf("downloading dataset %s: %w", key, err)
	}

	dataset, err := a.BoundaryIndex.Load(ctx, localPath)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", localPath, err)
	}

	a.Logger.Info("boundary dataset loaded",
		"id", dataset.ID,
		"polygons", dataset.PolygonCount,
		"label_column", a.Config.Boundary.LabelColumn,
	)
	return nil
}

// consumeBatchEvents drains the orchestrator's event stream, logging
// run outcomes. Exits when the batch service closes the channel.
func (a *App) consumeBatchEvents() {
	for event := range a.Batch.Events() {
		switch event.Kind {
		case domain.BatchEventProgress:
			a.Logger.Debug("batch progress",
				"processed", event.Processed, "total", event.Total)
		case domain.BatchEventFailed:
			a.Logger.Error("batch run failed",
				"processed", event.Processed, "total", event.Total, "error", event.Err)
		default:
			a.Logger.Info("batch run finished",
				"outcome", string(event.Kind),
				"processed", event.Processed, "total", event.Total)
		}
	}
}

// handleInboxEvent stages images dropped into the inbox directory.
func (a *App) handleInboxEvent(ctx context.Context, event watcher.Event) error {
	if event.Operation == watcher.OpDelete {
		return nil
	}

	staged, err := a.Batch.Stage(ctx, []string{event.Path})
	if err != nil {
		a.Logger.Warn("could not stage inbox image", "path", event.Path, "error", err)
		return nil
	}

	a.Logger.Info("inbox image staged", "path", event.Path, "staged", staged)
	return nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
