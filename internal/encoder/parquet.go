package encoder

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/encoder"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*ParquetEncoder)(nil)

// EmployeeParquet represents the Parquet schema for employee storage.
// Column order matches the CSV encoding so age is always the third column.
type EmployeeParquet struct {
	ID   int64  `parquet:"id"`
	Name string `parquet:"name"`
	Age  int32  `parquet:"age"`
}

// ParquetEncoder implements encoder.Encoder for Apache Parquet columnar format.
// Supports multiple compression codecs: SNAPPY (default), GZIP, LZ4, ZSTD.
type ParquetEncoder struct {
	compressionName string
}

// NewParquetEncoder creates a new Parquet encoder with specified compression.
func NewParquetEncoder(compression string) *ParquetEncoder {
	return &ParquetEncoder{
		compressionName: compression,
	}
}

// compressionCodec converts string compression name to parquet WriterOption.
func compressionCodec(compression string) parquet.WriterOption {
	switch compression {
	case "snappy", "SNAPPY":
		return parquet.Compression(&parquet.Snappy)
	case "gzip", "GZIP":
		return parquet.Compression(&parquet.Gzip)
	case "lz4", "LZ4":
		return parquet.Compression(&parquet.Lz4Raw)
	case "zstd", "ZSTD":
		return parquet.Compression(&parquet.Zstd)
	case "uncompressed", "UNCOMPRESSED", "none", "NONE":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// Encode writes records to w as a single Parquet file.
func (e *ParquetEncoder) Encode(w io.Writer, employees employee.Employees) (*employee.FileStats, error) {
	rows := make([]EmployeeParquet, len(employees.Employees))
	for i, emp := range employees.Employees {
		rows[i] = EmployeeParquet{
			ID:   int64(emp.ID),
			Name: emp.Name,
			Age:  int32(emp.Age),
		}
	}

	cw := &countingWriter{w: w}
	writer := parquet.NewGenericWriter[EmployeeParquet](
		cw,
		parquet.SchemaOf(new(EmployeeParquet)),
		compressionCodec(e.compressionName),
		parquet.CreatedBy("s3selectlab", "1.0", "0"),
	)

	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return nil, &errors.EncodingError{Format: employee.FormatParquet, Err: err}
	}

	if err := writer.Close(); err != nil {
		return nil, &errors.EncodingError{Format: employee.FormatParquet, Err: err}
	}

	return &employee.FileStats{
		RecordCount: len(rows),
		SizeBytes:   cw.n,
	}, nil
}

// Format returns the file format.
func (e *ParquetEncoder) Format() employee.Format {
	return employee.FormatParquet
}

// FileExtension returns the file extension.
func (e *ParquetEncoder) FileExtension() string {
	return employee.FormatParquet.FileExtension()
}

// ContentType returns the MIME type.
func (e *ParquetEncoder) ContentType() string {
	return employee.FormatParquet.ContentType()
}
