package encoder

import (
	"encoding/json"
	"io"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/encoder"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*JSONEncoder)(nil)

// JSONEncoder writes a single indented document of the form
// {"employees": [{"id":..,"name":..,"age":..}, ...]}.
type JSONEncoder struct {
	indent string
}

// NewJSONEncoder creates a new JSON document encoder.
func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{indent: "  "}
}

// Encode writes the employee document to w.
func (e *JSONEncoder) Encode(w io.Writer, employees employee.Employees) (*employee.FileStats, error) {
	// A nil slice would encode as null, which a JSON path query cannot walk.
	if employees.Employees == nil {
		employees.Employees = []employee.Employee{}
	}

	cw := &countingWriter{w: w}
	enc := json.NewEncoder(cw)
	enc.SetIndent("", e.indent)

	if err := enc.Encode(employees); err != nil {
		return nil, &errors.EncodingError{Format: employee.FormatJSON, Err: err}
	}

	return &employee.FileStats{
		RecordCount: employees.Len(),
		SizeBytes:   cw.n,
	}, nil
}

// Format returns the file format.
func (e *JSONEncoder) Format() employee.Format {
	return employee.FormatJSON
}

// FileExtension returns the file extension.
func (e *JSONEncoder) FileExtension() string {
	return employee.FormatJSON.FileExtension()
}

// ContentType returns the MIME type.
func (e *JSONEncoder) ContentType() string {
	return employee.FormatJSON.ContentType()
}
