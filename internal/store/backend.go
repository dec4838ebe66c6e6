package store

import (
	"context"
	"database/sql"
	"sync"

	"github.com/hpungsan/internmap/internal/db"
)

// Backend is durable string key-value storage.
type Backend interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLiteBackend stores values in the kv table of internmap.db.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an initialized database (see db.Init).
func NewSQLiteBackend(database *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database}
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return db.GetValue(ctx, b.db, key)
}

func (b *SQLiteBackend) Set(ctx context.Context, key, value string) error {
	return db.SetValue(ctx, b.db, key, value)
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	return db.DeleteValue(ctx, b.db, key)
}

// MemoryBackend is an in-process Backend for tests.
// Setting GetErr, SetErr or DeleteErr makes the matching call fail.
// FailGetOnce makes only the next Get of one key fail.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string

	GetErr    error
	failOnce  map[string]error
	SetErr    error
	DeleteErr error

	// Writes counts successful Set calls.
	Writes int
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	if err, ok := m.failOnce[key]; ok {
		delete(m.failOnce, key)
		return "", false, err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	m.Writes++
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.values, key)
	return nil
}

// FailGetOnce makes the next Get of key return err.
func (m *MemoryBackend) FailGetOnce(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOnce == nil {
		m.failOnce = make(map[string]error)
	}
	m.failOnce[key] = err
}

// Raw returns the stored value under key without going through a Store.
func (m *MemoryBackend) Raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Put sets key directly, bypassing failure injection.
func (m *MemoryBackend) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
