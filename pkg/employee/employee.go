// Package employee defines the synthetic employee record model.
//
// Records are generated once per run, serialized into several file formats
// and then discarded. Nothing in this package performs I/O.
package employee

import (
	"fmt"
	"strings"
)

// Employee is a single synthetic employee record.
// Field order (id, name, age) is the column order of every encoded format.
type Employee struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Employees is the root of the JSON document uploaded to the object store.
// Insertion order is generation order.
type Employees struct {
	Employees []Employee `json:"employees"`
}

// Len returns the number of records.
func (e Employees) Len() int {
	return len(e.Employees)
}

// AgeRange is a half-open interval [Min, Max).
type AgeRange struct {
	Min int
	Max int
}

// Contains reports whether age lies within the range.
func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age < r.Max
}

// Valid reports whether the range is non-empty.
func (r AgeRange) Valid() bool {
	return r.Max > r.Min
}

// String returns the range in interval notation, e.g. "[21, 58)".
func (r AgeRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Min, r.Max)
}

// FileStats contains statistics about an encoded file.
type FileStats struct {
	RecordCount int
	SizeBytes   int64
}

// Format represents the serialized file format of an uploaded object.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Formats returns every supported format in upload order.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatParquet}
}

// ParseFormat parses a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown format: %q", s)
	}
}

// FileExtension returns the file extension, including the leading dot.
func (f Format) FileExtension() string {
	return "." + string(f)
}

// ContentType returns the MIME type used when uploading the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
