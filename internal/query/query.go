// Package query runs filter queries against stored objects and streams the
// matching records to an output writer.
package query

import (
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// Query is a filter expression bound to the serialization of one format.
type Query struct {
	Format     employee.Format
	Expression string
	Input      storage.InputSerialization
	Output     storage.OutputSerialization
}

// Default filter expressions. CSV objects have no header row, so columns are
// positional and the age column must be cast.
const (
	DefaultJSONExpression    = "select s.* from S3Object[*].employees[*] s where s.age > 50 limit 5"
	DefaultCSVExpression     = "select s.* from S3Object s where cast(s._3 as int) > 50 limit 5"
	DefaultParquetExpression = "select s.* from S3Object s where s.age > 50 limit 5"
)

// DefaultQueries returns the default query for every supported format.
func DefaultQueries() map[employee.Format]Query {
	return map[employee.Format]Query{
		employee.FormatJSON: {
			Format:     employee.FormatJSON,
			Expression: DefaultJSONExpression,
			Input: storage.InputSerialization{
				Format:   employee.FormatJSON,
				JSONType: storage.JSONTypeDocument,
			},
			Output: storage.OutputSerialization{
				Format:          employee.FormatJSON,
				RecordDelimiter: "\n",
			},
		},
		employee.FormatCSV: {
			Format:     employee.FormatCSV,
			Expression: DefaultCSVExpression,
			Input: storage.InputSerialization{
				Format:        employee.FormatCSV,
				CSVHeaderInfo: storage.CSVHeaderNone,
			},
			Output: storage.OutputSerialization{
				Format: employee.FormatCSV,
			},
		},
		employee.FormatParquet: {
			Format:     employee.FormatParquet,
			Expression: DefaultParquetExpression,
			Input: storage.InputSerialization{
				Format: employee.FormatParquet,
			},
			Output: storage.OutputSerialization{
				Format:          employee.FormatJSON,
				RecordDelimiter: "\n",
			},
		},
	}
}

// WithExpression returns a copy of q using expr. An empty expr keeps the
// current expression.
func (q Query) WithExpression(expr string) Query {
	if expr != "" {
		q.Expression = expr
	}
	return q
}

// Request builds the select request for bucket/key.
func (q Query) Request(bucket, key string, progress bool) storage.SelectRequest {
	return storage.SelectRequest{
		Bucket:          bucket,
		Key:             key,
		Expression:      q.Expression,
		Input:           q.Input,
		Output:          q.Output,
		RequestProgress: progress,
	}
}
