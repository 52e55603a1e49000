package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jittakal/s3selectlab/internal/config"
	"github.com/jittakal/s3selectlab/internal/config/dto"
	"github.com/jittakal/s3selectlab/internal/encoder"
	"github.com/jittakal/s3selectlab/internal/generator"
	"github.com/jittakal/s3selectlab/internal/observability"
	"github.com/jittakal/s3selectlab/internal/pipeline"
	"github.com/jittakal/s3selectlab/internal/query"
	"github.com/jittakal/s3selectlab/internal/storage"
	"github.com/jittakal/s3selectlab/pkg/employee"
	pkgstorage "github.com/jittakal/s3selectlab/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runID := uuid.NewString()
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	}).With("run_id", runID)
	logger.Info("starting s3 select lab",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
		"backend", cfg.Store.Backend,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metadata := map[string]string{
		"run-id":    runID,
		"generator": cfg.Application.Name,
	}
	store, err := newStore(ctx, cfg, metadata, logger, metrics)
	if err != nil {
		return err
	}
	defer store.Close()

	bucket := cfg.Store.Bucket
	if bucket == "" {
		bucket = storage.BucketName(cfg.Store.BucketPrefix, time.Now())
	}

	gen := generator.New(generator.Config{
		Count:  cfg.Generator.Count,
		MinAge: cfg.Generator.MinAge,
		MaxAge: cfg.Generator.MaxAge,
		Seed:   cfg.Generator.Seed,
	}, logger)

	driver := query.NewDriver(store, os.Stdout, logger, metrics,
		query.WithProgress(cfg.Queries.RequestProgress),
	)

	p := pipeline.New(
		pipeline.Config{
			Bucket:  bucket,
			Backend: cfg.Store.Backend,
			Formats: config.Formats(cfg),
			WorkDir: cfg.Upload.WorkDir,
			Queries: buildQueries(cfg),
		},
		gen,
		encoder.NewFactory(cfg.Parquet.Compression),
		store,
		storage.NewRouter(cfg.Upload.BasePath, cfg.Upload.ObjectName),
		driver,
		os.Stdout,
		logger,
		metrics,
	)

	summary, runErr := p.Run(ctx)
	if summary != nil {
		logger.Info("run finished",
			"bucket", summary.Bucket,
			"bucket_created", summary.BucketCreated,
			"records", summary.Records,
			"uploads", len(summary.Uploads),
			"queries", len(summary.Reports),
		)
	}

	if cfg.Observability.Metrics.Enabled {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, observability.PushConfig{
			URL:   cfg.Observability.Metrics.PushgatewayURL,
			Job:   cfg.Observability.Metrics.Job,
			RunID: runID,
		}); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	return runErr
}

func newStore(
	ctx context.Context,
	cfg *dto.ApplicationConfig,
	metadata map[string]string,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (pkgstorage.Store, error) {
	switch cfg.Store.Backend {
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:          cfg.Store.Region,
			Endpoint:        cfg.Store.Endpoint,
			UsePathStyle:    cfg.Store.UsePathStyle,
			AccessKeyID:     cfg.Store.AccessKeyID,
			SecretAccessKey: cfg.Store.SecretAccessKey,
			SessionToken:    cfg.Store.SessionToken,
			SSEEnabled:      cfg.Store.SSEEnabled,
			SSEKMSKeyID:     cfg.Store.SSEKMSKeyID,
			PartSizeMB:      cfg.Upload.PartSizeMB,
			Concurrency:     cfg.Upload.Concurrency,
			Metadata:        metadata,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 store: %w", err)
		}
		return store, nil
	case "minio":
		store, err := storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:        cfg.Store.Endpoint,
			Region:          cfg.Store.Region,
			AccessKeyID:     cfg.Store.AccessKeyID,
			SecretAccessKey: cfg.Store.SecretAccessKey,
			SessionToken:    cfg.Store.SessionToken,
			UseSSL:          cfg.Store.UseSSL,
			SSEEnabled:      cfg.Store.SSEEnabled,
			SSEKMSKeyID:     cfg.Store.SSEKMSKeyID,
			Metadata:        metadata,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s (supported: s3, minio)", cfg.Store.Backend)
	}
}

// buildQueries applies configured expression overrides to the defaults.
func buildQueries(cfg *dto.ApplicationConfig) map[employee.Format]query.Query {
	queries := query.DefaultQueries()
	for format, q := range queries {
		queries[format] = q.WithExpression(cfg.Queries.Expression(string(format)))
	}
	return queries
}
