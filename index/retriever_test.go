package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parable-gpt/parable/corpus"
)

// writeTestCollection builds a collection directory with the given segments
// and unit vectors, then loads it back.
func writeTestCollection(t *testing.T, segments []corpus.Segment, vectors [][]float32) *corpus.Collection {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	for _, s := range segments {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, corpus.SegmentsFile), []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}
	if err := corpus.WriteIndex(dir, "test-model", vectors, true); err != nil {
		t.Fatal(err)
	}

	col, err := corpus.Load(dir, "test-model")
	if err != nil {
		t.Fatal(err)
	}
	return col
}

func testRetriever(t *testing.T, queryVectors map[string][]float32, calls *int) *Retriever {
	t.Helper()
	srv := fakeEmbeddingServer(t, queryVectors, calls)
	t.Cleanup(srv.Close)

	r := NewRetriever(NewEmbedder(srv.URL, "", "test-model"), time.Minute)
	t.Cleanup(r.Close)
	return r
}

func TestSearchReturnsRequestedCollectionOnly(t *testing.T) {
	r := testRetriever(t, map[string][]float32{"light": {1, 0, 0}}, nil)

	bible := writeTestCollection(t,
		[]corpus.Segment{
			{ID: "b1", Text: "the light shines in the darkness"},
			{ID: "b2", Text: "love your neighbor"},
		},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	)
	tao := writeTestCollection(t,
		[]corpus.Segment{{ID: "t1", Text: "the way that can be told"}},
		[][]float32{{0.9, 0.1, 0}},
	)

	if err := r.AddCollection("bible", bible); err != nil {
		t.Fatal(err)
	}
	if err := r.AddCollection("tao_te_ching", tao); err != nil {
		t.Fatal(err)
	}

	matches, err := r.Search(context.Background(), "bible", "light", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	for _, m := range matches {
		if strings.HasPrefix(m.Segment.ID, "t") {
			t.Errorf("match %q leaked from another collection", m.Segment.ID)
		}
	}
	if matches[0].Segment.ID != "b1" {
		t.Errorf("expected b1 ranked first, got %s", matches[0].Segment.ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("matches not ordered by score: %v", matches)
	}
}

func TestSearchUnknownCollection(t *testing.T) {
	r := testRetriever(t, nil, nil)
	if _, err := r.Search(context.Background(), "missing", "topic", 3); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestSearchEmptyTopic(t *testing.T) {
	r := testRetriever(t, nil, nil)
	if _, err := r.Search(context.Background(), "bible", "   ", 3); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestSearchCacheSkipsEmbedder(t *testing.T) {
	calls := 0
	r := testRetriever(t, map[string][]float32{"mercy": {0, 1, 0}}, &calls)

	col := writeTestCollection(t,
		[]corpus.Segment{{ID: "a", Text: "blessed are the merciful"}},
		[][]float32{{0, 1, 0}},
	)
	if err := r.AddCollection("bible", col); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := r.Search(context.Background(), "bible", "mercy", 1); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 embedding call, got %d", calls)
	}

	// Different k misses the cache.
	if _, err := r.Search(context.Background(), "bible", "mercy", 2); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected 2 embedding calls after new k, got %d", calls)
	}
}

func TestKeywordBoostPromotesExactMatch(t *testing.T) {
	// Both segments are equally similar to the query vector; the one that
	// literally contains the topic word should win the re-rank.
	r := testRetriever(t, map[string][]float32{"patience": {1, 0, 0}}, nil)

	col := writeTestCollection(t,
		[]corpus.Segment{
			{ID: "plain", Text: "the seasons turn without hurry"},
			{ID: "literal", Text: "patience is the companion of wisdom"},
		},
		[][]float32{{1, 0, 0}, {1, 0, 0}},
	)
	if err := r.AddCollection("dhammapada", col); err != nil {
		t.Fatal(err)
	}

	matches, err := r.Search(context.Background(), "dhammapada", "patience", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Segment.ID != "literal" {
		t.Errorf("expected literal match ranked first, got %s", matches[0].Segment.ID)
	}
}

func TestAddCollectionDuplicate(t *testing.T) {
	r := testRetriever(t, nil, nil)
	col := writeTestCollection(t,
		[]corpus.Segment{{ID: "a", Text: "alpha"}},
		[][]float32{{1, 0}},
	)
	if err := r.AddCollection("bible", col); err != nil {
		t.Fatal(err)
	}
	if err := r.AddCollection("bible", col); err == nil {
		t.Fatal("expected error for duplicate collection")
	}
}

func TestTokenizeWords(t *testing.T) {
	got := tokenizeWords("The Mercy, and the patience of 7 kings!")
	want := []string{"mercy", "patience", "of", "kings"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
