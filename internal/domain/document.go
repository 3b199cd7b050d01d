package domain

import "strconv"

// Document is the unit handed to the similarity store, built from an
// enriched SearchResult. Text is the fetched content with the snippet as
// fallback; the remaining fields travel along as metadata.
type Document struct {
	UUID    string
	Title   string
	URL     string
	Snippet string
	Text    string
}

// NewDocument builds a similarity document from a result, assigning the
// URL-derived UUID if the result has none.
func NewDocument(r *SearchResult) Document {
	r.EnsureUUID()

	text := r.Snippet
	if r.Enriched() {
		text = r.Content
	}

	return Document{
		UUID:    r.UUID,
		Title:   r.Title,
		URL:     r.URL,
		Snippet: r.Snippet,
		Text:    text,
	}
}

// Chunk is a bounded slice of a Document. Its identity extends the parent
// document UUID with a sequence number.
type Chunk struct {
	UUID string // parent document UUID
	Seq  int
	Text string
}

// ID returns the chunk identity: parent UUID plus sequence.
func (c Chunk) ID() string {
	return c.UUID + ":" + strconv.Itoa(c.Seq)
}

// Match is a similarity query hit: a matched fragment annotated with its
// source document UUID and a similarity score in [0,1].
type Match struct {
	UUID  string
	Text  string
	Score float64
}
