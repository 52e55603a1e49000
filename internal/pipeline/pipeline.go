// Package pipeline runs the generate, encode, upload and query stages in
// sequence against a single bucket.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jittakal/s3selectlab/internal/encoder"
	"github.com/jittakal/s3selectlab/internal/generator"
	"github.com/jittakal/s3selectlab/internal/query"
	internalstorage "github.com/jittakal/s3selectlab/internal/storage"
	"github.com/jittakal/s3selectlab/internal/validator"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// MetricsCollector defines metrics operations for the pipeline stages.
type MetricsCollector interface {
	AddRecordsGenerated(count float64)
	ObserveEncodeDuration(format string, seconds float64)
	SetFileSize(format string, bytes float64)
	ObserveUploadDuration(backend, format string, seconds float64)
}

// Config holds pipeline settings.
type Config struct {
	Bucket  string
	Backend string
	Formats []employee.Format
	WorkDir string // temp directory for encoded files; empty uses os.TempDir
	Queries map[employee.Format]query.Query
}

// Upload describes one uploaded object.
type Upload struct {
	Format  employee.Format
	Key     string
	Records int
	Size    int64
	Elapsed time.Duration
}

// Summary is the outcome of a complete run.
type Summary struct {
	Bucket        string
	BucketCreated bool
	Records       int
	Uploads       []Upload
	Reports       []*query.Report
}

// Pipeline wires the stages together. Every stage blocks until it completes
// and the first error aborts the run.
type Pipeline struct {
	cfg       Config
	generator *generator.Generator
	validator *validator.EmployeesValidator
	encoders  *encoder.Factory
	store     storage.Store
	router    storage.Router
	driver    *query.Driver
	out       io.Writer
	logger    *slog.Logger
	metrics   MetricsCollector
}

// New creates a pipeline. Timing lines and query payloads are written to out.
func New(
	cfg Config,
	gen *generator.Generator,
	encoders *encoder.Factory,
	store storage.Store,
	router storage.Router,
	driver *query.Driver,
	out io.Writer,
	logger *slog.Logger,
	metrics MetricsCollector,
) *Pipeline {
	if len(cfg.Formats) == 0 {
		cfg.Formats = employee.Formats()
	}
	if cfg.Queries == nil {
		cfg.Queries = query.DefaultQueries()
	}
	return &Pipeline{
		cfg:       cfg,
		generator: gen,
		validator: validator.NewEmployeesValidator(gen.AgeRange()),
		encoders:  encoders,
		store:     store,
		router:    router,
		driver:    driver,
		out:       out,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the full pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{Bucket: p.cfg.Bucket}

	created, err := internalstorage.EnsureBucket(ctx, p.store, p.cfg.Bucket)
	if err != nil {
		return summary, fmt.Errorf("failed to ensure bucket %s: %w", p.cfg.Bucket, err)
	}
	summary.BucketCreated = created
	p.logger.Info("bucket ready", "bucket", p.cfg.Bucket, "created", created)

	employees := p.generator.Generate()
	summary.Records = employees.Len()
	if p.metrics != nil {
		p.metrics.AddRecordsGenerated(float64(employees.Len()))
	}
	p.logger.Info("generated employees",
		"count", employees.Len(),
		"age_range", p.generator.AgeRange().String(),
	)

	if err := p.validator.Validate(employees); err != nil {
		return summary, fmt.Errorf("generated records are invalid: %w", err)
	}

	for _, format := range p.cfg.Formats {
		upload, err := p.upload(ctx, format, employees)
		if err != nil {
			return summary, err
		}
		summary.Uploads = append(summary.Uploads, *upload)
		fmt.Fprintf(p.out, "Took %d ms to upload %d records in %s format to s3://%s/%s\n",
			upload.Elapsed.Milliseconds(), upload.Records, format, p.cfg.Bucket, upload.Key)
	}

	for _, format := range p.cfg.Formats {
		q, ok := p.cfg.Queries[format]
		if !ok {
			return summary, fmt.Errorf("no query configured for format %s", format)
		}

		report, err := p.driver.Run(ctx, p.cfg.Bucket, p.router.Key(format), q)
		if err != nil {
			return summary, err
		}
		summary.Reports = append(summary.Reports, report)
		fmt.Fprintf(p.out, "Took %d ms to get matching records from %d records in %s format\n",
			report.Elapsed.Milliseconds(), employees.Len(), format)
	}

	return summary, nil
}

// upload encodes employees into a staged temp file and uploads it.
func (p *Pipeline) upload(ctx context.Context, format employee.Format, employees employee.Employees) (*Upload, error) {
	enc, err := p.encoders.CreateEncoder(format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	file, stats, err := stage(p.cfg.WorkDir, enc, employees)
	if err != nil {
		return nil, err
	}
	defer file.remove(p.logger)

	if p.metrics != nil {
		p.metrics.ObserveEncodeDuration(string(format), time.Since(start).Seconds())
		p.metrics.SetFileSize(string(format), float64(stats.SizeBytes))
	}

	key := p.router.Key(format)
	p.logger.Debug("encoded file",
		"format", format,
		"path", file.path,
		"records", stats.RecordCount,
		"size", stats.SizeBytes,
	)

	start = time.Now()
	if err := p.store.PutObject(ctx, p.cfg.Bucket, key, file.f, stats.SizeBytes, enc.ContentType()); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.ObserveUploadDuration(p.cfg.Backend, string(format), elapsed.Seconds())
	}
	p.logger.Info("uploaded file",
		"bucket", p.cfg.Bucket,
		"key", key,
		"size", stats.SizeBytes,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &Upload{
		Format:  format,
		Key:     key,
		Records: stats.RecordCount,
		Size:    stats.SizeBytes,
		Elapsed: elapsed,
	}, nil
}
