package chunk

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/ragsearch/internal/db"
	dbRedis "github.com/kailas-cloud/ragsearch/internal/db/redis"
	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig holds HNSW index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo persists document chunks and serves KNN queries over them.
// Chunk keys are deterministic (<prefix>chunk:<uuid>:<seq>), so re-indexing
// a document overwrites its previous chunks instead of accumulating copies.
type Repo struct {
	store  store
	prefix string
	hnsw   HNSWConfig
}

// New creates a chunk repository. keyPrefix namespaces all keys and the index.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// WithHNSW configures HNSW build parameters for EnsureIndex.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

func (r *Repo) indexName() string {
	return r.prefix + "chunks:idx"
}

func (r *Repo) chunkKey(uuid string, seq int) string {
	return r.prefix + "chunk:" + uuid + ":" + strconv.Itoa(seq)
}

func (r *Repo) chunkPattern(uuid string) string {
	return r.prefix + "chunk:" + uuid + ":*"
}

// EnsureIndex creates the FT index for chunk vectors if it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context, vectorDim int) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.prefix + "chunk:"},
		Fields: []db.IndexField{
			{Name: "uuid", Type: db.IndexFieldTag},
			{Name: "seq", Type: db.IndexFieldNumeric},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert replaces all chunks of a document with the given batch.
// Stale chunks under the document UUID are deleted first so shrinking
// documents do not leave orphaned tail chunks behind.
func (r *Repo) Upsert(
	ctx context.Context, doc domain.Document,
	chunks []domain.Chunk, vectors [][]float32,
) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	stale, err := r.store.Scan(ctx, r.chunkPattern(doc.UUID))
	if err != nil {
		return fmt.Errorf("scan stale chunks %s: %w", doc.UUID, err)
	}
	if err := r.store.DelMulti(ctx, stale); err != nil {
		return fmt.Errorf("delete stale chunks %s: %w", doc.UUID, err)
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{
			Key: r.chunkKey(c.UUID, c.Seq),
			Fields: map[string]string{
				"uuid":    c.UUID,
				"seq":     strconv.Itoa(c.Seq),
				"text":    c.Text,
				"title":   doc.Title,
				"snippet": doc.Snippet,
				"url":     doc.URL,
				"vector":  dbRedis.VectorToBytes(vectors[i]),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert chunks %s: %w", doc.UUID, err)
	}
	return nil
}

// Query runs a KNN search over the chunk index and returns matches ordered
// by similarity descending.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{"uuid", "text", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		matches = append(matches, domain.Match{
			UUID:  entry.Fields["uuid"],
			Text:  entry.Fields["text"],
			Score: entry.Score,
		})
	}
	return matches, nil
}
