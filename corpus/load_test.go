package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSegments(t *testing.T, dir string, segments []Segment) {
	t.Helper()
	var sb strings.Builder
	for _, s := range segments {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, SegmentsFile), []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeCollection(t *testing.T, model string, segments []Segment, vectors [][]float32) string {
	t.Helper()
	dir := t.TempDir()
	writeSegments(t, dir, segments)
	if err := WriteIndex(dir, model, vectors, true); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadRoundTrip(t *testing.T) {
	segments := []Segment{
		{ID: "john-3-16", Book: "John", Chapter: 3, StartVerse: 16, EndVerse: 17, Text: "For God so loved the world"},
		{ID: "john-3-18", Book: "John", Chapter: 3, StartVerse: 18, EndVerse: 19, Text: "Light has come into the world"},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	dir := writeCollection(t, "test-model", segments, vectors)

	col, err := Load(dir, "test-model")
	if err != nil {
		t.Fatal(err)
	}
	if col.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", col.Len())
	}
	if col.Manifest.Dim != 3 {
		t.Errorf("expected dim 3, got %d", col.Manifest.Dim)
	}
	if !col.Manifest.Normalize {
		t.Error("expected normalize flag set")
	}
	if col.Segments[0].ID != "john-3-16" {
		t.Errorf("unexpected first segment: %+v", col.Segments[0])
	}
	vec := col.Vector(1)
	if len(vec) != 3 || vec[1] != 1 {
		t.Errorf("unexpected vector for segment 1: %v", vec)
	}
}

func TestLoadModelMismatch(t *testing.T) {
	segments := []Segment{{ID: "a", Text: "alpha"}}
	dir := writeCollection(t, "old-model", segments, [][]float32{{1, 0}})

	_, err := Load(dir, "new-model")
	if err == nil {
		t.Fatal("expected model mismatch error")
	}
	if !strings.Contains(err.Error(), "different embedding model") {
		t.Errorf("unexpected error: %v", err)
	}

	// Empty wantModel skips the check.
	if _, err := Load(dir, ""); err != nil {
		t.Fatalf("expected load without model check to succeed, got %v", err)
	}
}

func TestLoadVectorSizeMismatch(t *testing.T) {
	segments := []Segment{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}}
	dir := writeCollection(t, "m", segments, [][]float32{{1, 0}, {0, 1}})

	// Truncate the vector file to break the size invariant.
	path := filepath.Join(dir, "vectors.f32")
	if err := os.Truncate(path, 4); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir, "m")
	if err == nil || !strings.Contains(err.Error(), "size mismatch") {
		t.Fatalf("expected size mismatch error, got %v", err)
	}
}

func TestLoadSegmentsRejectsBadData(t *testing.T) {
	tests := []struct {
		name  string
		lines string
	}{
		{"empty id", `{"id":"","text":"x"}`},
		{"empty text", `{"id":"a","text":"  "}`},
		{"duplicate id", "{\"id\":\"a\",\"text\":\"x\"}\n{\"id\":\"a\",\"text\":\"y\"}"},
		{"invalid json", `{"id":`},
	}

	for _, tt := range tests {
		dir := t.TempDir()
		path := filepath.Join(dir, SegmentsFile)
		if err := os.WriteFile(path, []byte(tt.lines+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadSegments(path); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir(), "m")
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestWriteIndexRejectsRaggedVectors(t *testing.T) {
	dir := t.TempDir()
	err := WriteIndex(dir, "m", [][]float32{{1, 0}, {1, 0, 0}}, true)
	if err == nil {
		t.Fatal("expected error for ragged vectors")
	}
}
