package encoder

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/jittakal/s3selectlab/pkg/employee"
)

// TestParquetEncoder_ColumnOrder verifies that age is the third column so
// positional and named queries agree with the CSV layout.
func TestParquetEncoder_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewParquetEncoder("snappy").Encode(&buf, sampleEmployees()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}

	fields := file.Schema().Fields()
	want := []string{"id", "name", "age"}
	if len(fields) != len(want) {
		t.Fatalf("column count = %d, want %d", len(fields), len(want))
	}
	for i, name := range want {
		if fields[i].Name() != name {
			t.Errorf("column %d = %q, want %q", i, fields[i].Name(), name)
		}
	}
}

// TestParquetEncoder_RoundTrip encodes and reads back every record.
func TestParquetEncoder_RoundTrip(t *testing.T) {
	employees := sampleEmployees()

	var buf bytes.Buffer
	stats, err := NewParquetEncoder("snappy").Encode(&buf, employees)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if stats.RecordCount != employees.Len() {
		t.Errorf("RecordCount = %d, want %d", stats.RecordCount, employees.Len())
	}
	if stats.SizeBytes != int64(buf.Len()) {
		t.Errorf("SizeBytes = %d, want %d", stats.SizeBytes, buf.Len())
	}

	rows, err := parquet.Read[EmployeeParquet](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(rows) != employees.Len() {
		t.Fatalf("row count = %d, want %d", len(rows), employees.Len())
	}
	for i, row := range rows {
		want := employees.Employees[i]
		if int(row.ID) != want.ID || row.Name != want.Name || int(row.Age) != want.Age {
			t.Errorf("row %d = %+v, want %+v", i, row, want)
		}
	}
}

// TestParquetEncoder_CompressionCodecs tests all supported compression codecs.
func TestParquetEncoder_CompressionCodecs(t *testing.T) {
	for _, compression := range SupportedCompressions(employee.FormatParquet) {
		t.Run(compression, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := NewParquetEncoder(compression).Encode(&buf, sampleEmployees()); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			rows, err := parquet.Read[EmployeeParquet](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(rows) != 3 {
				t.Errorf("row count = %d, want 3", len(rows))
			}
		})
	}
}
