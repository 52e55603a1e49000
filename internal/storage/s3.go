// Package storage implements S3 object store client.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Store = (*S3Store)(nil)

const backendS3 = "s3"

// MetricsCollector defines metrics operations for storage.
type MetricsCollector interface {
	IncStorageErrors(backend string, operation string)
	AddBytesUploaded(backend string, bytes float64)
}

// S3Config contains AWS S3 configuration.
type S3Config struct {
	Region          string
	Endpoint        string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	SSEEnabled      bool
	SSEKMSKeyID     string
	PartSizeMB      int64
	Concurrency     int
	Metadata        map[string]string
}

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	SelectObjectContent(ctx context.Context, params *s3.SelectObjectContentInput, optFns ...func(*s3.Options)) (*s3.SelectObjectContentOutput, error)
}

// s3Uploader is the subset of *manager.Uploader used by S3Store.
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store implements storage.Store for AWS S3.
// Uploads go through the multipart manager; filter queries use S3 Select.
type S3Store struct {
	client      s3API
	uploader    s3Uploader
	region      string
	sseEnabled  bool
	sseKMSKeyID string
	metadata    map[string]string
	logger      *slog.Logger
	metrics     MetricsCollector
	mu          sync.RWMutex
	closed      bool
}

// NewS3Store creates a new S3 object store client.
// Static credentials are used when both key fields are set; otherwise the
// default AWS credential chain applies.
func NewS3Store(
	ctx context.Context,
	cfg S3Config,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	partSize := cfg.PartSizeMB
	if partSize <= 0 {
		partSize = 10
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = partSize * 1024 * 1024
		u.Concurrency = concurrency
	})

	logger.Info("S3 store created",
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.UsePathStyle,
		"static_credentials", cfg.AccessKeyID != "",
		"sse_enabled", cfg.SSEEnabled,
	)

	return newS3Store(s3Client, uploader, cfg, logger, metrics), nil
}

func newS3Store(client s3API, uploader s3Uploader, cfg S3Config, logger *slog.Logger, metrics MetricsCollector) *S3Store {
	return &S3Store{
		client:      client,
		uploader:    uploader,
		region:      cfg.Region,
		sseEnabled:  cfg.SSEEnabled,
		sseKMSKeyID: cfg.SSEKMSKeyID,
		metadata:    cfg.Metadata,
		logger:      logger,
		metrics:     metrics,
	}
}

// BucketExists reports whether the bucket exists via HeadBucket.
func (s *S3Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		s.incErrors("head_bucket")
		return false, &errors.StorageError{Operation: "head_bucket", Bucket: bucket, Err: err}
	}
	return true, nil
}

// CreateBucket creates the bucket in the configured region.
func (s *S3Store) CreateBucket(ctx context.Context, bucket string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// us-east-1 rejects an explicit location constraint.
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		s.incErrors("create_bucket")
		return &errors.StorageError{Operation: "create_bucket", Bucket: bucket, Err: err}
	}

	s.logger.Info("created bucket", "bucket", bucket, "region", s.region)
	return nil
}

// PutObject uploads body to bucket/key, overwriting any existing object.
func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    s.metadata,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if s.sseEnabled {
		if s.sseKMSKeyID != "" {
			input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			input.SSEKMSKeyId = aws.String(s.sseKMSKeyID)
		} else {
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		s.incErrors("upload")
		return &errors.StorageError{Operation: "upload", Bucket: bucket, Key: key, Err: err}
	}

	if s.metrics != nil && size > 0 {
		s.metrics.AddBytesUploaded(backendS3, float64(size))
	}

	s.logger.Debug("uploaded object",
		"bucket", bucket,
		"key", key,
		"size", size,
		"location", result.Location,
	)
	return nil
}

// SelectObjectContent submits an S3 Select request.
func (s *S3Store) SelectObjectContent(ctx context.Context, req storage.SelectRequest) (storage.Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	input, err := buildS3SelectInput(req)
	if err != nil {
		return nil, err
	}

	out, err := s.client.SelectObjectContent(ctx, input)
	if err != nil {
		s.incErrors("select")
		return nil, &errors.StorageError{Operation: "select", Bucket: req.Bucket, Key: req.Key, Err: err}
	}

	return newS3Result(out.GetStream()), nil
}

// Close closes the S3 store. Further calls fail with ErrStoreClosed.
func (s *S3Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.logger.Info("closing S3 store")
	}
	return nil
}

func (s *S3Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

func (s *S3Store) incErrors(operation string) {
	if s.metrics != nil {
		s.metrics.IncStorageErrors(backendS3, operation)
	}
}
