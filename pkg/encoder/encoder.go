// Package encoder defines interfaces for encoding employee records to various file formats.
package encoder

import (
	"io"

	"github.com/jittakal/s3selectlab/pkg/employee"
)

// Encoder encodes employee records to a specific file format.
type Encoder interface {
	// Encode writes all records to w and returns file statistics.
	Encode(w io.Writer, employees employee.Employees) (*employee.FileStats, error)

	// Format returns the file format this encoder produces.
	Format() employee.Format

	// FileExtension returns the file extension (e.g., ".json", ".parquet").
	FileExtension() string

	// ContentType returns the MIME type of the produced file.
	ContentType() string
}
