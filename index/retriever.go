package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/jellydator/ttlcache/v3"

	"github.com/parable-gpt/parable/corpus"
)

// extraCandidates controls how many graph neighbors beyond k are fetched so
// the keyword re-rank has room to promote exact-token matches.
const extraCandidates = 2

// keywordBoost is the weight added to a match's blended rank score per unit
// of query-token overlap. Reported scores stay pure cosine.
const keywordBoost = 0.15

// Match is a retrieved segment with its cosine similarity to the query.
type Match struct {
	Segment corpus.Segment
	Score   float64
}

// Retriever answers nearest-neighbor queries over loaded collections using
// one in-memory HNSW graph per collection. Query results are cached with a
// TTL so repeated topics skip the embedding round-trip.
type Retriever struct {
	embedder *Embedder

	mu       sync.RWMutex
	graphs   map[string]*hnsw.Graph[string]
	segments map[string]map[string]corpus.Segment

	cache *ttlcache.Cache[string, []Match]
}

// NewRetriever creates a retriever. ttl bounds how long query results are
// reused; non-positive values fall back to an hour.
func NewRetriever(embedder *Embedder, ttl time.Duration) *Retriever {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := ttlcache.New[string, []Match](
		ttlcache.WithTTL[string, []Match](ttl),
		ttlcache.WithDisableTouchOnHit[string, []Match](),
	)
	go c.Start()
	return &Retriever{
		embedder: embedder,
		graphs:   make(map[string]*hnsw.Graph[string]),
		segments: make(map[string]map[string]corpus.Segment),
		cache:    c,
	}
}

// AddCollection indexes a loaded collection under the given name.
// Vectors not already unit-normalized are normalized before insertion.
func (r *Retriever) AddCollection(name string, col *corpus.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.graphs[name]; exists {
		return fmt.Errorf("collection %q already indexed", name)
	}

	graph := hnsw.NewGraph[string]()
	segs := make(map[string]corpus.Segment, col.Len())
	nodes := make([]hnsw.Node[string], 0, col.Len())
	for i, seg := range col.Segments {
		vec := col.Vector(i)
		if !col.Manifest.Normalize {
			vec = NormalizeL2(vec)
		}
		nodes = append(nodes, hnsw.MakeNode(seg.ID, vec))
		segs[seg.ID] = seg
	}
	if len(nodes) > 0 {
		graph.Add(nodes...)
	}

	r.graphs[name] = graph
	r.segments[name] = segs
	return nil
}

// Collections returns the indexed collection names, sorted.
func (r *Retriever) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search embeds the topic and returns the k most similar segments from the
// named collection, ordered by relevance.
func (r *Retriever) Search(ctx context.Context, collection, topic string, k int) ([]Match, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("empty topic")
	}
	if k <= 0 {
		return nil, fmt.Errorf("invalid k: %d", k)
	}

	key := collection + "\x00" + strconv.Itoa(k) + "\x00" + strings.ToLower(topic)
	if item := r.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	queryVec, err := r.embedder.Embed(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("cannot embed topic: %w", err)
	}
	queryVec = NormalizeL2(queryVec)

	r.mu.RLock()
	defer r.mu.RUnlock()

	graph, ok := r.graphs[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q not indexed", collection)
	}
	if graph.Len() == 0 {
		return nil, nil
	}

	neighbors := graph.Search(queryVec, k*extraCandidates)
	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		vec, found := graph.Lookup(n.Key)
		if !found {
			continue
		}
		score, err := Cosine(queryVec, vec)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Segment: r.segments[collection][n.Key], Score: score})
	}

	rerank(matches, topic)
	if len(matches) > k {
		matches = matches[:k]
	}

	r.cache.Set(key, matches, ttlcache.DefaultTTL)
	return matches, nil
}

// Close stops the cache expiration loop.
func (r *Retriever) Close() {
	r.cache.Stop()
}

// rerank orders matches by cosine score blended with query-token overlap, so
// passages that literally mention the topic edge out near-ties.
func rerank(matches []Match, topic string) {
	tokens := tokenizeWords(topic)
	type ranked struct {
		match  Match
		weight float64
	}
	items := make([]ranked, len(matches))
	for i, m := range matches {
		items[i] = ranked{match: m, weight: m.Score + keywordBoost*tokenOverlap(tokens, m.Segment.Text)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].weight > items[j].weight
	})
	for i, item := range items {
		matches[i] = item.match
	}
}

// tokenOverlap returns the fraction of query tokens appearing in text.
func tokenOverlap(tokens []string, text string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// stopWords contains common words to exclude from keyword matching.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "are": true, "but": true, "not": true, "you": true,
	"all": true, "was": true, "his": true, "her": true, "from": true,
	"they": true, "have": true, "had": true, "been": true, "were": true,
	"will": true, "would": true, "could": true, "should": true, "shall": true,
	"unto": true, "them": true, "which": true, "there": true, "their": true,
	"when": true, "then": true, "than": true, "into": true, "upon": true,
}

// tokenizeWords splits a query into lowercase keyword tokens.
func tokenizeWords(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(c rune) bool {
		return !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'))
	})
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) >= 2 && !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}
