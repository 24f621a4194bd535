package redisom

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/redisom/internal/db"
)

// mockStore implements db.Store for tests.
type mockStore struct {
	pingFn        func(ctx context.Context) error
	jsonSetFn     func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn     func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonDelFn     func(ctx context.Context, key, path string) error
	delFn         func(ctx context.Context, key string) error
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	listIndexesFn func(ctx context.Context) ([]string, error)
	indexInfoFn   func(ctx context.Context, name string) (*db.IndexInfo, error)
	searchFn      func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return []byte("[]"), nil
}

func (m *mockStore) JSONDel(ctx context.Context, key, path string) error {
	if m.jsonDelFn != nil {
		return m.jsonDelFn(ctx, key, path)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) ListIndexes(ctx context.Context) ([]string, error) {
	if m.listIndexesFn != nil {
		return m.listIndexesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return &db.IndexInfo{Name: name}, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Close() {}

func newUserRepo(t *testing.T) (*Repository[testUser], *mockStore) {
	t.Helper()
	s, err := Model[testUser]()
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	ms := &mockStore{}
	return &Repository[testUser]{store: ms, schema: s}, ms
}

func newVectorRepo(t *testing.T) (*Repository[testVector], *mockStore) {
	t.Helper()
	s, err := Model[testVector]()
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	ms := &mockStore{}
	return &Repository[testVector]{store: ms, schema: s}, ms
}

func newTestMigrator(ms *mockStore) *Migrator {
	return &Migrator{store: ms, log: zap.NewNop()}
}

func newTestClient(ms *mockStore) *Client {
	return &Client{store: ms, log: zap.NewNop()}
}
