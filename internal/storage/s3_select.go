package storage

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// buildS3SelectInput maps a SelectRequest onto the SDK request shape.
func buildS3SelectInput(req storage.SelectRequest) (*s3.SelectObjectContentInput, error) {
	compression := req.Input.Compression
	if compression == "" {
		compression = storage.CompressionNone
	}

	input := &types.InputSerialization{
		CompressionType: types.CompressionType(compression),
	}
	switch req.Input.Format {
	case employee.FormatJSON:
		jsonType := req.Input.JSONType
		if jsonType == "" {
			jsonType = storage.JSONTypeDocument
		}
		input.JSON = &types.JSONInput{Type: types.JSONType(jsonType)}
	case employee.FormatCSV:
		header := req.Input.CSVHeaderInfo
		if header == "" {
			header = storage.CSVHeaderNone
		}
		input.CSV = &types.CSVInput{
			FileHeaderInfo:  types.FileHeaderInfo(header),
			RecordDelimiter: optionalString(req.Input.RecordDelimiter),
			FieldDelimiter:  optionalString(req.Input.FieldDelimiter),
		}
	case employee.FormatParquet:
		input.Parquet = &types.ParquetInput{}
	default:
		return nil, fmt.Errorf("%w: input %s", errors.ErrUnsupportedFormat, req.Input.Format)
	}

	output := &types.OutputSerialization{}
	switch req.Output.Format {
	case employee.FormatJSON:
		output.JSON = &types.JSONOutput{
			RecordDelimiter: optionalString(req.Output.RecordDelimiter),
		}
	case employee.FormatCSV:
		output.CSV = &types.CSVOutput{
			RecordDelimiter: optionalString(req.Output.RecordDelimiter),
			FieldDelimiter:  optionalString(req.Output.FieldDelimiter),
		}
	default:
		return nil, fmt.Errorf("%w: output %s", errors.ErrUnsupportedFormat, req.Output.Format)
	}

	in := &s3.SelectObjectContentInput{
		Bucket:              aws.String(req.Bucket),
		Key:                 aws.String(req.Key),
		Expression:          aws.String(req.Expression),
		ExpressionType:      types.ExpressionTypeSql,
		InputSerialization:  input,
		OutputSerialization: output,
	}
	if req.RequestProgress {
		in.RequestProgress = &types.RequestProgress{Enabled: aws.Bool(true)}
	}
	return in, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

// s3EventReader is satisfied by *s3.SelectObjectContentEventStream.
type s3EventReader interface {
	Events() <-chan types.SelectObjectContentEventStream
	Err() error
	Close() error
}

// s3EventStream converts the SDK event union into storage.Event values.
type s3EventStream struct {
	reader    s3EventReader
	events    chan storage.Event
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newS3EventStream(reader s3EventReader) *s3EventStream {
	s := &s3EventStream{
		reader: reader,
		events: make(chan storage.Event),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *s3EventStream) pump() {
	defer close(s.events)

	for ev := range s.reader.Events() {
		converted, ok := convertS3Event(ev)
		if !ok {
			continue
		}
		select {
		case s.events <- converted:
		case <-s.done:
			return
		}
	}
}

func (s *s3EventStream) Events() <-chan storage.Event {
	return s.events
}

func (s *s3EventStream) Err() error {
	return s.reader.Err()
}

func (s *s3EventStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

// convertS3Event maps one SDK union member. Unknown members are dropped.
func convertS3Event(ev types.SelectObjectContentEventStream) (storage.Event, bool) {
	switch v := ev.(type) {
	case *types.SelectObjectContentEventStreamMemberRecords:
		return storage.Event{Kind: storage.EventRecords, Payload: v.Value.Payload}, true
	case *types.SelectObjectContentEventStreamMemberStats:
		return storage.Event{Kind: storage.EventStats, Stats: convertS3Stats(v.Value.Details)}, true
	case *types.SelectObjectContentEventStreamMemberProgress:
		return storage.Event{Kind: storage.EventProgress, Stats: convertS3Progress(v.Value.Details)}, true
	case *types.SelectObjectContentEventStreamMemberCont:
		return storage.Event{Kind: storage.EventContinuation}, true
	case *types.SelectObjectContentEventStreamMemberEnd:
		return storage.Event{Kind: storage.EventEnd}, true
	default:
		return storage.Event{}, false
	}
}

func convertS3Stats(details *types.Stats) *storage.Stats {
	if details == nil {
		return &storage.Stats{}
	}
	return &storage.Stats{
		BytesScanned:   aws.ToInt64(details.BytesScanned),
		BytesProcessed: aws.ToInt64(details.BytesProcessed),
		BytesReturned:  aws.ToInt64(details.BytesReturned),
	}
}

func convertS3Progress(details *types.Progress) *storage.Stats {
	if details == nil {
		return &storage.Stats{}
	}
	return &storage.Stats{
		BytesScanned:   aws.ToInt64(details.BytesScanned),
		BytesProcessed: aws.ToInt64(details.BytesProcessed),
		BytesReturned:  aws.ToInt64(details.BytesReturned),
	}
}

// s3Result wraps the SelectObjectContent output stream.
type s3Result struct {
	stream    *s3EventStream
	closeOnce sync.Once
	closeErr  error
}

func newS3Result(reader s3EventReader) *s3Result {
	return &s3Result{stream: newS3EventStream(reader)}
}

func (r *s3Result) Stream() storage.EventStream {
	return r.stream
}

// Close releases the response body. The stream shares the same connection.
func (r *s3Result) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.stream.Close()
	})
	return r.closeErr
}
