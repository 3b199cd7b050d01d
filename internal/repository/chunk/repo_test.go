package chunk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragsearch/internal/db"
	"github.com/kailas-cloud/ragsearch/internal/domain"
)

type mockStore struct {
	scanKeys    []string
	scanErr     error
	deleted     []string
	hsetItems   []db.HashSetItem
	hsetErr     error
	indexExists bool
	createdDef  *db.IndexDefinition
	knnResult   *db.SearchResult
	knnErr      error
	lastQuery   *db.KNNQuery
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.hsetItems = append(m.hsetItems, items...)
	return m.hsetErr
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	m.deleted = append(m.deleted, keys...)
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	return m.scanKeys, m.scanErr
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdDef = def
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, nil
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	return m.knnResult, m.knnErr
}

func testDoc() domain.Document {
	return domain.Document{
		UUID:    "doc-1",
		Title:   "Title",
		URL:     "https://example.com",
		Snippet: "snippet",
		Text:    "full text",
	}
}

func TestUpsert_DeletesStaleChunksFirst(t *testing.T) {
	store := &mockStore{scanKeys: []string{"rag:chunk:doc-1:0", "rag:chunk:doc-1:1"}}
	repo := New(store, "rag:")

	chunks := []domain.Chunk{{UUID: "doc-1", Seq: 0, Text: "part"}}
	vectors := [][]float32{{0.1, 0.2}}

	if err := repo.Upsert(context.Background(), testDoc(), chunks, vectors); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.deleted) != 2 {
		t.Errorf("deleted %d stale keys, want 2", len(store.deleted))
	}
	if len(store.hsetItems) != 1 {
		t.Fatalf("wrote %d hashes, want 1", len(store.hsetItems))
	}

	item := store.hsetItems[0]
	if item.Key != "rag:chunk:doc-1:0" {
		t.Errorf("chunk key = %q", item.Key)
	}
	if item.Fields["uuid"] != "doc-1" || item.Fields["seq"] != "0" {
		t.Errorf("chunk identity fields = %v", item.Fields)
	}
	if item.Fields["text"] != "part" || item.Fields["url"] != "https://example.com" {
		t.Errorf("chunk payload fields = %v", item.Fields)
	}
}

func TestUpsert_CountMismatch(t *testing.T) {
	repo := New(&mockStore{}, "rag:")
	err := repo.Upsert(context.Background(), testDoc(),
		[]domain.Chunk{{UUID: "doc-1"}}, nil)
	if err == nil {
		t.Fatal("expected error for chunk/vector count mismatch")
	}
}

func TestQuery_MapsEntriesToMatches(t *testing.T) {
	store := &mockStore{
		knnResult: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "rag:chunk:a:0", Score: 0.95, Fields: map[string]string{"uuid": "a", "text": "first"}},
				{Key: "rag:chunk:b:2", Score: 0.82, Fields: map[string]string{"uuid": "b", "text": "second"}},
			},
		},
	}
	repo := New(store, "rag:")

	matches, err := repo.Query(context.Background(), []float32{0.1}, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].UUID != "a" || matches[0].Text != "first" || matches[0].Score != 0.95 {
		t.Errorf("first match = %+v", matches[0])
	}
	if store.lastQuery.K != 6 {
		t.Errorf("query K = %d, want 6", store.lastQuery.K)
	}
	if !strings.HasSuffix(store.lastQuery.IndexName, "chunks:idx") {
		t.Errorf("index name = %q", store.lastQuery.IndexName)
	}
}

func TestQuery_Error(t *testing.T) {
	store := &mockStore{knnErr: errors.New("boom")}
	repo := New(store, "rag:")

	if _, err := repo.Query(context.Background(), []float32{0.1}, 6); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureIndex_SkipsWhenPresent(t *testing.T) {
	store := &mockStore{indexExists: true}
	repo := New(store, "rag:")

	if err := repo.EnsureIndex(context.Background(), 1536); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.createdDef != nil {
		t.Error("CreateIndex called for existing index")
	}
}

func TestEnsureIndex_CreatesWithVectorField(t *testing.T) {
	store := &mockStore{}
	repo := New(store, "rag:").WithHNSW(HNSWConfig{M: 32, EFConstruct: 400})

	if err := repo.EnsureIndex(context.Background(), 1536); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.createdDef == nil {
		t.Fatal("CreateIndex not called")
	}

	var vec *db.IndexField
	for i := range store.createdDef.Fields {
		if store.createdDef.Fields[i].Type == db.IndexFieldVector {
			vec = &store.createdDef.Fields[i]
		}
	}
	if vec == nil {
		t.Fatal("index definition has no vector field")
	}
	if vec.VectorDim != 1536 || vec.VectorM != 32 || vec.VectorEFConstruct != 400 {
		t.Errorf("vector field = %+v", vec)
	}
}
