// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/minio/minio-go/v7"

	"github.com/jittakal/s3selectlab/pkg/employee"
)

// Sentinel errors for common conditions.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoEncoder         = errors.New("no encoder for format")
	ErrStoreClosed       = errors.New("object store is closed")
	ErrInvalidRange      = errors.New("invalid age range")
)

// ValidationError represents a generated record that violates the data model.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: index=%d field=%s: %s",
		e.Index, e.Field, e.Reason)
}

// EncodingError represents a failure to serialize records.
type EncodingError struct {
	Format employee.Format
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: format=%s: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// StorageError represents an object store operation failure.
type StorageError struct {
	Operation string
	Bucket    string
	Key       string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage error: operation=%s bucket=%s: %v",
			e.Operation, e.Bucket, e.Err)
	}
	return fmt.Sprintf("storage error: operation=%s bucket=%s key=%s: %v",
		e.Operation, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// QueryError represents a filter query that failed on submit or mid-stream.
type QueryError struct {
	Format employee.Format
	Key    string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: format=%s key=%s: %v", e.Format, e.Key, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a "no such bucket" or 404 response
// from either the AWS SDK or the MinIO client.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code == "NoSuchBucket" || minioErr.StatusCode == http.StatusNotFound
	}

	return false
}
