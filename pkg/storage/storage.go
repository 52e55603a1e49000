// Package storage defines interfaces for object store and filter query operations.
//
// This package provides abstractions over S3-compatible stores (AWS S3, MinIO)
// that can evaluate a SQL-like filter expression against a stored object and
// stream back only the matching rows.
package storage

import (
	"context"
	"io"

	"github.com/jittakal/s3selectlab/pkg/employee"
)

// Store is the narrow object store client used by the pipeline.
type Store interface {
	// BucketExists reports whether the bucket exists and is reachable.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// CreateBucket creates the bucket. Callers check BucketExists first.
	CreateBucket(ctx context.Context, bucket string) error

	// PutObject uploads body to bucket/key, overwriting any existing object.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error

	// SelectObjectContent submits a server-evaluated filter query and returns
	// a handle on the result event stream.
	SelectObjectContent(ctx context.Context, req SelectRequest) (Result, error)

	// Close releases client resources.
	Close() error
}

// Router determines object keys for encoded files.
type Router interface {
	// Key returns the object key for a file of the given format.
	Key(format employee.Format) string
}

// Result is the handle returned by a filter query. It must be closed once
// the stream has been consumed.
type Result interface {
	Stream() EventStream
	Close() error
}

// EventStream is a finite, single-pass, non-restartable sequence of events.
type EventStream interface {
	// Events returns the channel of events in arrival order. The channel is
	// closed when the stream ends or fails.
	Events() <-chan Event

	// Err returns the transport error, if any, after Events is closed.
	Err() error

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// EventKind discriminates the events of a filter query response.
type EventKind int

const (
	EventRecords EventKind = iota + 1
	EventStats
	EventProgress
	EventContinuation
	EventEnd
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventRecords:
		return "records"
	case EventStats:
		return "stats"
	case EventProgress:
		return "progress"
	case EventContinuation:
		return "continuation"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Stats carries byte counters reported by the store.
type Stats struct {
	BytesScanned   int64
	BytesProcessed int64
	BytesReturned  int64
}

// Event is a single element of a filter query response.
// Payload is set for EventRecords, Stats for EventStats and EventProgress.
type Event struct {
	Kind    EventKind
	Payload []byte
	Stats   *Stats
}

// JSONType describes how a JSON source object is laid out.
type JSONType string

const (
	JSONTypeDocument JSONType = "DOCUMENT"
	JSONTypeLines    JSONType = "LINES"
)

// CSVHeaderInfo describes the first line of a CSV source object.
type CSVHeaderInfo string

const (
	CSVHeaderNone   CSVHeaderInfo = "NONE"
	CSVHeaderUse    CSVHeaderInfo = "USE"
	CSVHeaderIgnore CSVHeaderInfo = "IGNORE"
)

// Compression is the compression of a source object.
type Compression string

const (
	CompressionNone  Compression = "NONE"
	CompressionGzip  Compression = "GZIP"
	CompressionBzip2 Compression = "BZIP2"
)

// InputSerialization describes how the store parses the source object.
type InputSerialization struct {
	Format          employee.Format
	JSONType        JSONType
	CSVHeaderInfo   CSVHeaderInfo
	RecordDelimiter string
	FieldDelimiter  string
	Compression     Compression
}

// OutputSerialization describes how the store serializes matching rows.
// Only JSON and CSV are valid output formats.
type OutputSerialization struct {
	Format          employee.Format
	RecordDelimiter string
	FieldDelimiter  string
}

// SelectRequest is a single filter query invocation.
type SelectRequest struct {
	Bucket          string
	Key             string
	Expression      string
	Input           InputSerialization
	Output          OutputSerialization
	RequestProgress bool
}
