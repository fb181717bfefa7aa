// Package main runs the development import backend: the upload, import and
// history endpoints the importer talks to, backed by local files and a job
// store in memory, sqlite or postgres.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	importapp "github.com/erp/importer/internal/application/import"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/config"
	"github.com/erp/importer/internal/infrastructure/csvimport"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/persistence"
	"github.com/erp/importer/internal/infrastructure/storage"
	"github.com/erp/importer/internal/infrastructure/telemetry"
	"github.com/erp/importer/internal/interfaces/http/middleware"
	"github.com/erp/importer/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to the TOML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting import backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.DevServer.Port),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	formatter, err := format.New(format.Locale{
		Language:       cfg.Locale.Language,
		Currency:       cfg.Locale.Currency,
		CurrencySymbol: cfg.Locale.CurrencySymbol,
		Timezone:       cfg.Locale.Timezone,
	})
	if err != nil {
		log.Fatal("Invalid locale", zap.Error(err))
	}

	store, err := storage.NewLocalFileStorage(cfg.DevServer.StorageDir,
		storage.WithLogger(log),
		storage.WithMaxSize(cfg.DevServer.MaxUploadMB<<20),
	)
	if err != nil {
		log.Fatal("Failed to open upload storage", zap.Error(err))
	}

	repo, closeRepo, err := openJobRepository(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open job store", zap.Error(err))
	}
	defer closeRepo()

	jobs := importapp.NewJobService(
		repo,
		importapp.DelayRunner{Duration: cfg.DevServer.JobDuration},
		log,
	)
	metrics := telemetry.NewImportMetrics(jobs.Running)

	engine := router.NewEngine(router.Dependencies{
		Config:        cfg,
		Logger:        log,
		Storage:       store,
		Extractor:     csvimport.NewExtractor(formatter, cfg.DevServer.PreviewLimit),
		Jobs:          jobs,
		Metrics:       metrics,
		Formatter:     formatter,
		UploadLimiter: middleware.NewRateLimiter(2, 10),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.DevServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("storage_dir", store.Dir()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Shutdown(ctx); err != nil {
		log.Warn("Import jobs still running at exit", zap.Int("running", jobs.Running()))
	}

	log.Info("Server exited gracefully")
}

func openJobRepository(cfg config.DatabaseConfig, log *zap.Logger) (bulk.ImportJobRepository, func(), error) {
	if cfg.Driver == "memory" {
		return persistence.NewMemoryImportJobRepository(), func() {}, nil
	}

	db, err := persistence.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Job store connected", zap.String("driver", cfg.Driver))
	return persistence.NewGormImportJobRepository(db.DB), func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close job store", zap.Error(err))
		}
	}, nil
}
