package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// MetricsCollector defines metrics operations for queries.
type MetricsCollector interface {
	ObserveQueryDuration(format string, seconds float64)
	IncQueryEvents(format, kind string)
	SetQueryBytesScanned(format string, bytes float64)
	AddQueryPayloadBytes(format string, bytes float64)
}

// Report summarizes one completed query.
type Report struct {
	Format       employee.Format
	Key          string
	Records      int // number of records events (payload chunks), not rows
	PayloadBytes int64
	Stats        *storage.Stats
	Completed    bool
	Elapsed      time.Duration
}

// Driver submits queries to a store and copies matching records to out.
type Driver struct {
	store    storage.Store
	out      io.Writer
	progress bool
	logger   *slog.Logger
	metrics  MetricsCollector
}

// Option configures a Driver.
type Option func(*Driver)

// WithProgress requests progress events from the store.
func WithProgress(enabled bool) Option {
	return func(d *Driver) {
		d.progress = enabled
	}
}

// NewDriver creates a query driver writing record payloads to out.
func NewDriver(store storage.Store, out io.Writer, logger *slog.Logger, metrics MetricsCollector, opts ...Option) *Driver {
	d := &Driver{
		store:   store,
		out:     out,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes q against bucket/key and streams the records payloads to the
// driver's writer in arrival order. The stream and result are each closed
// exactly once on every path.
func (d *Driver) Run(ctx context.Context, bucket, key string, q Query) (report *Report, err error) {
	report = &Report{Format: q.Format, Key: key}
	start := time.Now()

	defer func() {
		report.Elapsed = time.Since(start)
		if d.metrics != nil {
			d.metrics.ObserveQueryDuration(string(q.Format), report.Elapsed.Seconds())
		}
		if err != nil {
			err = &errors.QueryError{Format: q.Format, Key: key, Err: err}
		}
	}()

	d.logger.Debug("submitting query",
		"bucket", bucket,
		"key", key,
		"format", q.Format,
		"expression", q.Expression,
	)

	result, err := d.store.SelectObjectContent(ctx, q.Request(bucket, key, d.progress))
	if err != nil {
		return report, err
	}
	defer func() {
		if cerr := result.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close result: %w", cerr)
		}
	}()

	stream := result.Stream()
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close stream: %w", cerr)
		}
	}()

	for ev := range stream.Events() {
		if d.metrics != nil {
			d.metrics.IncQueryEvents(string(q.Format), ev.Kind.String())
		}

		switch ev.Kind {
		case storage.EventRecords:
			if _, err := d.out.Write(ev.Payload); err != nil {
				return report, fmt.Errorf("failed to write records: %w", err)
			}
			report.Records++
			report.PayloadBytes += int64(len(ev.Payload))
			if d.metrics != nil {
				d.metrics.AddQueryPayloadBytes(string(q.Format), float64(len(ev.Payload)))
			}
		case storage.EventStats:
			report.Stats = ev.Stats
			if ev.Stats != nil && d.metrics != nil {
				d.metrics.SetQueryBytesScanned(string(q.Format), float64(ev.Stats.BytesScanned))
			}
		case storage.EventProgress:
			if ev.Stats != nil {
				d.logger.Debug("query progress",
					"key", key,
					"bytes_scanned", ev.Stats.BytesScanned,
					"bytes_processed", ev.Stats.BytesProcessed,
					"bytes_returned", ev.Stats.BytesReturned,
				)
			}
		case storage.EventContinuation:
		case storage.EventEnd:
			report.Completed = true
		}
	}

	if err := stream.Err(); err != nil {
		return report, fmt.Errorf("failed to read event stream: %w", err)
	}

	d.logger.Debug("query finished",
		"key", key,
		"format", q.Format,
		"records_events", report.Records,
		"payload_bytes", report.PayloadBytes,
		"completed", report.Completed,
	)
	return report, nil
}
