package corpus

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrModelMismatch is returned when a collection's index was built with a
// different embedding model than the one configured. Re-run `parable index`
// to rebuild.
var ErrModelMismatch = errors.New("index built with a different embedding model")

// SegmentsFile is the default segment file name inside a collection directory.
const SegmentsFile = "segments.jsonl"

const (
	manifestName      = "manifest.json"
	defaultVectorFile = "vectors.f32"
)

// Load reads a collection from dir containing manifest + segments + vectors.
// wantModel, when non-empty, must match the model recorded in the manifest.
func Load(dir string, wantModel string) (*Collection, error) {
	manifestPath := filepath.Join(dir, manifestName)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in manifest %s: %d", manifestPath, m.Dim)
	}
	if m.VectorFile == "" {
		m.VectorFile = defaultVectorFile
	}
	if m.SegmentFile == "" {
		m.SegmentFile = SegmentsFile
	}
	if wantModel != "" && m.Model != wantModel {
		return nil, fmt.Errorf("%s: %w (index: %q, configured: %q)", dir, ErrModelMismatch, m.Model, wantModel)
	}

	segments, err := LoadSegments(filepath.Join(dir, m.SegmentFile))
	if err != nil {
		return nil, err
	}
	vectors, err := loadVectors(filepath.Join(dir, m.VectorFile), len(segments), m.Dim)
	if err != nil {
		return nil, err
	}

	return &Collection{Manifest: m, Segments: segments, vectors: vectors}, nil
}

// LoadSegments reads a segments JSONL file, enforcing that every segment has
// a unique non-empty id and non-empty text.
func LoadSegments(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open segment file %s: %w", path, err)
	}
	defer f.Close()

	var out []Segment
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var s Segment
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid segment JSONL %s line %d: %w", path, line, err)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("%s line %d: segment has empty id", path, line)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%s line %d: duplicate segment id %q", path, line, s.ID)
		}
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("%s line %d: segment %q has empty text", path, line, s.ID)
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read segment file %s: %w", path, err)
	}
	return out, nil
}

func loadVectors(path string, nSegments, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}

	expected := int64(nSegments) * int64(dim) * 4
	if st.Size() != expected {
		return nil, fmt.Errorf("vector file size mismatch %s: got %d want %d (segments=%d dim=%d)",
			path, st.Size(), expected, nSegments, dim)
	}

	out := make([]float32, nSegments*dim)
	if err := binary.Read(io.LimitReader(bufio.NewReader(f), expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}
