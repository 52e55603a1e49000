package encoder

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/encoder"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*CSVEncoder)(nil)

// CSVColumns is the fixed column order of the CSV encoding. Positional
// queries address these as _1, _2 and _3.
var CSVColumns = []string{"id", "name", "age"}

// CSVEncoder writes one headerless row per employee.
type CSVEncoder struct {
	comma rune
}

// NewCSVEncoder creates a new comma-separated encoder.
func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{comma: ','}
}

// Encode writes every employee as a row of id, name, age.
func (e *CSVEncoder) Encode(w io.Writer, employees employee.Employees) (*employee.FileStats, error) {
	cw := &countingWriter{w: w}
	writer := csv.NewWriter(cw)
	writer.Comma = e.comma

	row := make([]string, len(CSVColumns))
	for _, emp := range employees.Employees {
		row[0] = strconv.Itoa(emp.ID)
		row[1] = emp.Name
		row[2] = strconv.Itoa(emp.Age)

		if err := writer.Write(row); err != nil {
			return nil, &errors.EncodingError{Format: employee.FormatCSV, Err: err}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, &errors.EncodingError{Format: employee.FormatCSV, Err: err}
	}

	return &employee.FileStats{
		RecordCount: employees.Len(),
		SizeBytes:   cw.n,
	}, nil
}

// Format returns the file format.
func (e *CSVEncoder) Format() employee.Format {
	return employee.FormatCSV
}

// FileExtension returns the file extension.
func (e *CSVEncoder) FileExtension() string {
	return employee.FormatCSV.FileExtension()
}

// ContentType returns the MIME type.
func (e *CSVEncoder) ContentType() string {
	return employee.FormatCSV.ContentType()
}
