package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/jittakal/s3selectlab/internal/encoder"
	"github.com/jittakal/s3selectlab/internal/generator"
	"github.com/jittakal/s3selectlab/internal/query"
	internalstorage "github.com/jittakal/s3selectlab/internal/storage"
	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/storage"
)

// selectStore keeps uploaded objects in memory and answers select requests
// by applying "age > minAge" with a row limit, the way the default queries
// do, to the decoded object.
type selectStore struct {
	buckets   map[string]bool
	objects   map[string][]byte
	types     map[string]string
	minAge    int
	limit     int
	putErr    error
	selects   int
	onPut     func(key string)
}

func newSelectStore() *selectStore {
	return &selectStore{
		buckets: make(map[string]bool),
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		minAge:  50,
		limit:   5,
	}
}

func (s *selectStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return s.buckets[bucket], nil
}

func (s *selectStore) CreateBucket(_ context.Context, bucket string) error {
	s.buckets[bucket] = true
	return nil
}

func (s *selectStore) PutObject(_ context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if s.onPut != nil {
		s.onPut(key)
	}
	if s.putErr != nil {
		return s.putErr
	}
	if !s.buckets[bucket] {
		return fmt.Errorf("NoSuchBucket: %s", bucket)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: declared %d, read %d", size, len(data))
	}
	s.objects[bucket+"/"+key] = data
	s.types[bucket+"/"+key] = contentType
	return nil
}

func (s *selectStore) SelectObjectContent(_ context.Context, req storage.SelectRequest) (storage.Result, error) {
	s.selects++
	data, ok := s.objects[req.Bucket+"/"+req.Key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", req.Key)
	}

	var rows []employee.Employee
	switch req.Input.Format {
	case employee.FormatJSON:
		var doc employee.Employees
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		rows = doc.Employees
	case employee.FormatCSV:
		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			id, _ := strconv.Atoi(rec[0])
			age, _ := strconv.Atoi(rec[2])
			rows = append(rows, employee.Employee{ID: id, Name: rec[1], Age: age})
		}
	case employee.FormatParquet:
		pq, err := parquet.Read[encoder.EmployeeParquet](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		for _, r := range pq {
			rows = append(rows, employee.Employee{ID: int(r.ID), Name: r.Name, Age: int(r.Age)})
		}
	}

	var out bytes.Buffer
	cw := csv.NewWriter(&out)
	matched := 0
	for _, e := range rows {
		if e.Age <= s.minAge || matched == s.limit {
			continue
		}
		matched++
		if req.Output.Format == employee.FormatCSV {
			_ = cw.Write([]string{strconv.Itoa(e.ID), e.Name, strconv.Itoa(e.Age)})
			continue
		}
		line, _ := json.Marshal(e)
		out.Write(line)
		out.WriteString(req.Output.RecordDelimiter)
	}
	cw.Flush()

	payload := out.Bytes()
	half := len(payload) / 2
	events := []storage.Event{
		{Kind: storage.EventRecords, Payload: payload[:half]},
		{Kind: storage.EventContinuation},
		{Kind: storage.EventRecords, Payload: payload[half:]},
		{Kind: storage.EventStats, Stats: &storage.Stats{
			BytesScanned:   int64(len(data)),
			BytesProcessed: int64(len(data)),
			BytesReturned:  int64(len(payload)),
		}},
		{Kind: storage.EventEnd},
	}
	return newMemResult(events), nil
}

func (s *selectStore) Close() error { return nil }

type memStream struct {
	ch     chan storage.Event
	closes int
}

func (m *memStream) Events() <-chan storage.Event { return m.ch }
func (m *memStream) Err() error                   { return nil }
func (m *memStream) Close() error {
	m.closes++
	return nil
}

type memResult struct{ stream *memStream }

func newMemResult(events []storage.Event) *memResult {
	ch := make(chan storage.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &memResult{stream: &memStream{ch: ch}}
}

func (r *memResult) Stream() storage.EventStream { return r.stream }
func (r *memResult) Close() error                { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, store storage.Store, gen *generator.Generator, out io.Writer, workDir string) *Pipeline {
	t.Helper()
	logger := testLogger()
	return New(
		Config{Bucket: "amazon-s3-select-20260101", Backend: "fake", WorkDir: workDir},
		gen,
		encoder.NewFactory("snappy"),
		store,
		internalstorage.NewRouter("", ""),
		query.NewDriver(store, out, logger, nil),
		out,
		logger,
		nil,
	)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
}

func TestPipeline_Run(t *testing.T) {
	store := newSelectStore()
	workDir := t.TempDir()
	var out bytes.Buffer

	gen := generator.New(generator.Config{Count: 200, MinAge: 21, MaxAge: 58, Seed: 42}, testLogger())
	want := gen.Generate()
	gen = generator.New(generator.Config{Count: 200, MinAge: 21, MaxAge: 58, Seed: 42}, testLogger())

	summary, err := newTestPipeline(t, store, gen, &out, workDir).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.BucketCreated || summary.Records != 200 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Uploads) != 3 || len(summary.Reports) != 3 {
		t.Fatalf("uploads=%d reports=%d, want 3 each", len(summary.Uploads), len(summary.Reports))
	}
	for i, f := range employee.Formats() {
		if summary.Uploads[i].Format != f || summary.Reports[i].Format != f {
			t.Errorf("step %d out of order: %s/%s", i, summary.Uploads[i].Format, summary.Reports[i].Format)
		}
		if !summary.Reports[i].Completed {
			t.Errorf("%s query did not complete", f)
		}
		key := "amazon-s3-select-20260101/employees" + f.FileExtension()
		if store.types[key] != f.ContentType() {
			t.Errorf("%s content type = %q", f, store.types[key])
		}
	}

	var expected []employee.Employee
	for _, e := range want.Employees {
		if e.Age > 50 && len(expected) < 5 {
			expected = append(expected, e)
		}
	}

	text := out.String()
	for _, e := range expected {
		if !strings.Contains(text, fmt.Sprintf("%d,%s,%d\n", e.ID, e.Name, e.Age)) {
			t.Errorf("csv output missing %+v", e)
		}
		line, _ := json.Marshal(e)
		if strings.Count(text, string(line)+"\n") != 2 {
			t.Errorf("json and parquet output should both contain %s", line)
		}
	}

	for _, f := range employee.Formats() {
		if !strings.Contains(text, fmt.Sprintf("in %s format to s3://amazon-s3-select-20260101/employees%s", f, f.FileExtension())) {
			t.Errorf("missing upload timing line for %s", f)
		}
		if !strings.Contains(text, fmt.Sprintf("to get matching records from 200 records in %s format", f)) {
			t.Errorf("missing query timing line for %s", f)
		}
	}

	assertEmptyDir(t, workDir)
}

func TestPipeline_Run_ExistingBucket(t *testing.T) {
	store := newSelectStore()
	store.buckets["amazon-s3-select-20260101"] = true

	gen := generator.New(generator.Config{Count: 10, MinAge: 21, MaxAge: 58, Seed: 1}, testLogger())
	summary, err := newTestPipeline(t, store, gen, io.Discard, t.TempDir()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.BucketCreated {
		t.Error("existing bucket reported as created")
	}
}

func TestPipeline_Run_UploadFailureAborts(t *testing.T) {
	store := newSelectStore()
	store.putErr = errors.New("AccessDenied")
	workDir := t.TempDir()

	var staged int
	store.onPut = func(string) {
		entries, _ := os.ReadDir(workDir)
		staged = len(entries)
	}

	gen := generator.New(generator.Config{Count: 10, MinAge: 21, MaxAge: 58, Seed: 1}, testLogger())
	summary, err := newTestPipeline(t, store, gen, io.Discard, workDir).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, store.putErr) {
		t.Errorf("error = %v, want wrapped AccessDenied", err)
	}
	if staged != 1 {
		t.Errorf("staged files during upload = %d, want 1", staged)
	}
	if len(summary.Uploads) != 0 || store.selects != 0 {
		t.Error("run continued after the first failure")
	}
	assertEmptyDir(t, workDir)
}

func TestPipeline_Run_MissingQuery(t *testing.T) {
	store := newSelectStore()
	logger := testLogger()
	gen := generator.New(generator.Config{Count: 5, MinAge: 21, MaxAge: 58, Seed: 1}, logger)

	p := New(
		Config{
			Bucket:  "b",
			Formats: []employee.Format{employee.FormatCSV},
			WorkDir: t.TempDir(),
			Queries: map[employee.Format]query.Query{},
		},
		gen,
		encoder.NewFactory(""),
		store,
		internalstorage.NewRouter("", ""),
		query.NewDriver(store, io.Discard, logger, nil),
		io.Discard,
		logger,
		nil,
	)
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing query")
	}
}

// TestCSVFilterQuery_EndToEnd uploads three known records as CSV and runs
// the default CSV query against them.
func TestCSVFilterQuery_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newSelectStore()
	store.buckets["b"] = true

	employees := employee.Employees{Employees: []employee.Employee{
		{ID: 1, Name: "Ada Lovelace", Age: 30},
		{ID: 2, Name: "Alan Turing", Age: 60},
		{ID: 3, Name: "Grace Hopper", Age: 70},
	}}

	enc, err := encoder.NewFactory("").CreateEncoder(employee.FormatCSV)
	if err != nil {
		t.Fatalf("CreateEncoder() error = %v", err)
	}
	file, stats, err := stage(t.TempDir(), enc, employees)
	if err != nil {
		t.Fatalf("stage() error = %v", err)
	}
	defer file.remove(nil)

	if err := store.PutObject(ctx, "b", "employees.csv", file.f, stats.SizeBytes, enc.ContentType()); err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}

	var out bytes.Buffer
	driver := query.NewDriver(store, &out, testLogger(), nil)
	if _, err := driver.Run(ctx, "b", "employees.csv", query.DefaultQueries()[employee.FormatCSV]); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rows, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	want := [][]string{{"2", "Alan Turing", "60"}, {"3", "Grace Hopper", "70"}}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
				break
			}
		}
	}
}

func TestStage_RemovesFileOnEncodeError(t *testing.T) {
	dir := t.TempDir()
	_, _, err := stage(dir, failingEncoder{}, employee.Employees{})
	if err == nil {
		t.Fatal("expected error")
	}
	assertEmptyDir(t, dir)
}

type failingEncoder struct{}

func (failingEncoder) Encode(io.Writer, employee.Employees) (*employee.FileStats, error) {
	return nil, errors.New("encode failed")
}
func (failingEncoder) Format() employee.Format { return employee.FormatJSON }
func (failingEncoder) FileExtension() string   { return ".json" }
func (failingEncoder) ContentType() string     { return "application/json" }
