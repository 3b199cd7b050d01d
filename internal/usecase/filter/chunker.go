package filter

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// Chunker splits document text into overlapping chunks for embedding.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a recursive character chunker.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split chunks the document text. Chunk sequence numbers follow text order
// starting at 0.
func (c *Chunker) Split(doc domain.Document) ([]domain.Chunk, error) {
	parts, err := c.splitter.SplitText(doc.Text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			UUID: doc.UUID,
			Seq:  i,
			Text: part,
		})
	}
	return chunks, nil
}
