// Package corpus loads passage collections and their precomputed embeddings.
//
// A collection lives in its own directory: a manifest.json describing the
// embedding index, a segments.jsonl with one passage per line, and a
// vectors.f32 with the embedding matrix in little-endian float32. The vector
// file is produced once (by `parable index` or an offline pipeline) and is
// read-only at runtime.
package corpus

// Segment is one passage-level unit of a corpus collection.
// The reference metadata fields are tradition-dependent: Bible segments carry
// book/chapter/verse range, Quran segments a surah, Tao Te Ching segments
// only a chapter.
type Segment struct {
	ID         string `json:"id"`
	Book       string `json:"book,omitempty"`
	Chapter    int    `json:"chapter,omitempty"`
	Surah      int    `json:"surah,omitempty"`
	StartVerse int    `json:"start_verse,omitempty"`
	EndVerse   int    `json:"end_verse,omitempty"`
	Text       string `json:"text"`
}

// Manifest describes a collection's embedding index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	Model        string `json:"model"`
	Dim          int    `json:"dim"`
	Normalize    bool   `json:"normalize"`
	VectorFile   string `json:"vector_file"`
	SegmentFile  string `json:"segment_file"`
}

// Collection is a loaded corpus collection with its embedding matrix.
type Collection struct {
	Manifest Manifest
	Segments []Segment

	// vectors is the flat len(Segments)×Dim embedding matrix.
	vectors []float32
}

// Len returns the number of segments.
func (c *Collection) Len() int { return len(c.Segments) }

// Vector returns the embedding of segment i as a slice into the matrix.
// Callers must not modify the returned slice.
func (c *Collection) Vector(i int) []float32 {
	dim := c.Manifest.Dim
	return c.vectors[i*dim : (i+1)*dim]
}
