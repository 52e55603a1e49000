// Package storage implements MinIO object store client.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Store = (*MinIOStore)(nil)

const (
	backendMinIO = "minio"

	// minioChunkSize bounds the size of a single records event.
	minioChunkSize = 32 * 1024
)

// MinIOConfig holds MinIO connection settings.
type MinIOConfig struct {
	Endpoint        string // e.g. "minio:9000" or "localhost:9000"
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	UseSSL          bool
	SSEEnabled      bool
	SSEKMSKeyID     string
	Metadata        map[string]string
}

// minioAPI is the subset of *minio.Client used by MinIOStore.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	SelectObjectContent(ctx context.Context, bucketName, objectName string, opts minio.SelectObjectOptions) (*minio.SelectResults, error)
}

// MinIOStore implements storage.Store for MinIO and other S3-compatible
// servers that support SelectObjectContent.
type MinIOStore struct {
	client   minioAPI
	region   string
	sse      encrypt.ServerSide
	metadata map[string]string
	logger   *slog.Logger
	metrics  MetricsCollector
	mu       sync.RWMutex
	closed   bool
}

// NewMinIOStore creates a MinIO store client.
func NewMinIOStore(cfg MinIOConfig, logger *slog.Logger, metrics MetricsCollector) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	var sse encrypt.ServerSide
	if cfg.SSEEnabled {
		if cfg.SSEKMSKeyID != "" {
			sse, err = encrypt.NewSSEKMS(cfg.SSEKMSKeyID, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to configure SSE-KMS: %w", err)
			}
		} else {
			sse = encrypt.NewSSE()
		}
	}

	logger.Info("MinIO store created",
		"endpoint", cfg.Endpoint,
		"region", cfg.Region,
		"use_ssl", cfg.UseSSL,
		"sse_enabled", cfg.SSEEnabled,
	)

	return &MinIOStore{
		client:   mc,
		region:   cfg.Region,
		sse:      sse,
		metadata: cfg.Metadata,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// BucketExists reports whether the bucket exists.
func (s *MinIOStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		s.incErrors("head_bucket")
		return false, &errors.StorageError{Operation: "head_bucket", Bucket: bucket, Err: err}
	}
	return exists, nil
}

// CreateBucket creates the bucket in the configured region.
func (s *MinIOStore) CreateBucket(ctx context.Context, bucket string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		s.incErrors("create_bucket")
		return &errors.StorageError{Operation: "create_bucket", Bucket: bucket, Err: err}
	}

	s.logger.Info("created bucket", "bucket", bucket, "region", s.region)
	return nil
}

// PutObject uploads body to bucket/key, overwriting any existing object.
func (s *MinIOStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	info, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType:          contentType,
		UserMetadata:         s.metadata,
		ServerSideEncryption: s.sse,
	})
	if err != nil {
		s.incErrors("upload")
		return &errors.StorageError{Operation: "upload", Bucket: bucket, Key: key, Err: err}
	}

	if s.metrics != nil && info.Size > 0 {
		s.metrics.AddBytesUploaded(backendMinIO, float64(info.Size))
	}

	s.logger.Debug("uploaded object",
		"bucket", bucket,
		"key", key,
		"size", info.Size,
		"etag", info.ETag,
	)
	return nil
}

// SelectObjectContent submits a select request to the MinIO server.
func (s *MinIOStore) SelectObjectContent(ctx context.Context, req storage.SelectRequest) (storage.Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	opts, err := buildMinIOSelectOptions(req)
	if err != nil {
		return nil, err
	}

	results, err := s.client.SelectObjectContent(ctx, req.Bucket, req.Key, opts)
	if err != nil {
		s.incErrors("select")
		return nil, &errors.StorageError{Operation: "select", Bucket: req.Bucket, Key: req.Key, Err: err}
	}

	return newMinIOResult(results), nil
}

// Close closes the MinIO store.
func (s *MinIOStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.logger.Info("closing MinIO store")
	}
	return nil
}

func (s *MinIOStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

func (s *MinIOStore) incErrors(operation string) {
	if s.metrics != nil {
		s.metrics.IncStorageErrors(backendMinIO, operation)
	}
}

// buildMinIOSelectOptions maps a SelectRequest onto minio select options.
func buildMinIOSelectOptions(req storage.SelectRequest) (minio.SelectObjectOptions, error) {
	compression := req.Input.Compression
	if compression == "" {
		compression = storage.CompressionNone
	}

	opts := minio.SelectObjectOptions{
		Expression:     req.Expression,
		ExpressionType: minio.QueryExpressionTypeSQL,
		InputSerialization: minio.SelectObjectInputSerialization{
			CompressionType: minio.SelectCompressionType(compression),
		},
	}
	opts.RequestProgress.Enabled = req.RequestProgress

	switch req.Input.Format {
	case employee.FormatJSON:
		jsonType := req.Input.JSONType
		if jsonType == "" {
			jsonType = storage.JSONTypeDocument
		}
		in := &minio.JSONInputOptions{}
		in.SetType(minio.JSONType(jsonType))
		opts.InputSerialization.JSON = in
	case employee.FormatCSV:
		header := req.Input.CSVHeaderInfo
		if header == "" {
			header = storage.CSVHeaderNone
		}
		in := &minio.CSVInputOptions{}
		in.SetFileHeaderInfo(minio.CSVFileHeaderInfo(header))
		if req.Input.RecordDelimiter != "" {
			in.SetRecordDelimiter(req.Input.RecordDelimiter)
		}
		if req.Input.FieldDelimiter != "" {
			in.SetFieldDelimiter(req.Input.FieldDelimiter)
		}
		opts.InputSerialization.CSV = in
	case employee.FormatParquet:
		opts.InputSerialization.Parquet = &minio.ParquetInputOptions{}
	default:
		return opts, fmt.Errorf("%w: input %s", errors.ErrUnsupportedFormat, req.Input.Format)
	}

	switch req.Output.Format {
	case employee.FormatJSON:
		out := &minio.JSONOutputOptions{}
		if req.Output.RecordDelimiter != "" {
			out.SetRecordDelimiter(req.Output.RecordDelimiter)
		}
		opts.OutputSerialization.JSON = out
	case employee.FormatCSV:
		out := &minio.CSVOutputOptions{}
		if req.Output.RecordDelimiter != "" {
			out.SetRecordDelimiter(req.Output.RecordDelimiter)
		}
		if req.Output.FieldDelimiter != "" {
			out.SetFieldDelimiter(req.Output.FieldDelimiter)
		}
		opts.OutputSerialization.CSV = out
	default:
		return opts, fmt.Errorf("%w: output %s", errors.ErrUnsupportedFormat, req.Output.Format)
	}

	return opts, nil
}

// minioSelectReader is satisfied by *minio.SelectResults.
type minioSelectReader interface {
	io.ReadCloser
	Stats() *minio.StatsMessage
}

// minioEventStream re-frames the decoded payload reader as events: one
// records event per read, then stats and end once the reader is drained.
type minioEventStream struct {
	reader    minioSelectReader
	events    chan storage.Event
	done      chan struct{}
	err       error
	closeOnce sync.Once
	closeErr  error
}

func newMinIOEventStream(reader minioSelectReader) *minioEventStream {
	s := &minioEventStream{
		reader: reader,
		events: make(chan storage.Event),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *minioEventStream) pump() {
	defer close(s.events)

	buf := make([]byte, minioChunkSize)
	for {
		n, err := s.reader.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			if !s.send(storage.Event{Kind: storage.EventRecords, Payload: payload}) {
				return
			}
		}
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			select {
			case <-s.done:
			default:
				s.err = err
			}
			return
		}
	}

	if stats := s.reader.Stats(); stats != nil {
		if !s.send(storage.Event{Kind: storage.EventStats, Stats: &storage.Stats{
			BytesScanned:   stats.BytesScanned,
			BytesProcessed: stats.BytesProcessed,
			BytesReturned:  stats.BytesReturned,
		}}) {
			return
		}
	}
	s.send(storage.Event{Kind: storage.EventEnd})
}

func (s *minioEventStream) send(ev storage.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *minioEventStream) Events() <-chan storage.Event {
	return s.events
}

// Err is only meaningful after Events has been closed.
func (s *minioEventStream) Err() error {
	return s.err
}

func (s *minioEventStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

// minioResult wraps *minio.SelectResults.
type minioResult struct {
	stream *minioEventStream
}

func newMinIOResult(reader minioSelectReader) *minioResult {
	return &minioResult{stream: newMinIOEventStream(reader)}
}

func (r *minioResult) Stream() storage.EventStream {
	return r.stream
}

// Close releases the response body; the stream and result share one reader.
func (r *minioResult) Close() error {
	return r.stream.Close()
}
