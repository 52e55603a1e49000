// Package encoder implements encoder factory for creating file format encoders.
package encoder

import (
	"fmt"
	"io"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/encoder"
)

// Factory creates encoders based on format and configuration.
type Factory struct {
	compression string
}

// NewFactory creates a new encoder factory.
// compression applies to Parquet only; text formats are uploaded uncompressed.
func NewFactory(compression string) *Factory {
	return &Factory{
		compression: compression,
	}
}

// CreateEncoder creates an encoder for the given format.
func (f *Factory) CreateEncoder(format employee.Format) (encoder.Encoder, error) {
	switch format {
	case employee.FormatJSON:
		return NewJSONEncoder(), nil
	case employee.FormatCSV:
		return NewCSVEncoder(), nil
	case employee.FormatParquet:
		return NewParquetEncoder(f.compression), nil
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrNoEncoder, format)
	}
}

// SupportedFormats returns a list of supported file formats.
func SupportedFormats() []employee.Format {
	return employee.Formats()
}

// SupportedCompressions returns supported compression codecs for a given format.
func SupportedCompressions(format employee.Format) []string {
	switch format {
	case employee.FormatParquet:
		return []string{"uncompressed", "snappy", "gzip", "lz4", "zstd"}
	case employee.FormatJSON, employee.FormatCSV:
		return []string{"uncompressed"}
	default:
		return []string{}
	}
}

// DefaultCompression returns the default compression for a format.
func DefaultCompression(format employee.Format) string {
	switch format {
	case employee.FormatParquet:
		return "snappy"
	default:
		return "uncompressed"
	}
}

// countingWriter tracks how many bytes an encoder produced.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
