package storage

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/jittakal/s3selectlab/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory storage.Store for helper tests.
type memStore struct {
	buckets     map[string]bool
	existsErr   error
	createErr   error
	createCalls int
}

func newMemStore() *memStore {
	return &memStore{buckets: make(map[string]bool)}
}

func (m *memStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.buckets[bucket], nil
}

func (m *memStore) CreateBucket(_ context.Context, bucket string) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.buckets[bucket] = true
	return nil
}

func (m *memStore) PutObject(context.Context, string, string, io.Reader, int64, string) error {
	return nil
}

func (m *memStore) SelectObjectContent(context.Context, storage.SelectRequest) (storage.Result, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

// mockMetrics records storage metric calls.
type mockMetrics struct {
	mu       sync.Mutex
	errors   map[string]int
	uploaded float64
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{errors: make(map[string]int)}
}

func (m *mockMetrics) IncStorageErrors(backend, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[backend+"/"+operation]++
}

func (m *mockMetrics) AddBytesUploaded(_ string, bytes float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded += bytes
}

// drain collects every event until the stream's channel closes.
func drain(stream storage.EventStream) []storage.Event {
	var events []storage.Event
	for ev := range stream.Events() {
		events = append(events, ev)
	}
	return events
}
