package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	parable "github.com/parable-gpt/parable"
	"github.com/parable-gpt/parable/corpus"
	"github.com/parable-gpt/parable/index"
	"github.com/parable-gpt/parable/tradition"
)

const indexBatchSize = 32

var flagIndexTradition string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build embedding indexes from corpus segments",
	Long: `Index embeds every segment of each collection's segments.jsonl through the
configured embeddings API and writes the resulting vectors.f32 and
manifest.json next to it. Run it once per corpus, and again after changing
the embedding model.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexTradition, "tradition", "", "only rebuild this tradition's collection")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := tradition.Load(parable.TraditionsPath())
	if err != nil {
		return err
	}

	traditions := reg.All()
	if flagIndexTradition != "" {
		t, err := reg.Get(flagIndexTradition)
		if err != nil {
			return err
		}
		traditions = []tradition.Tradition{*t}
	}

	embedder := newEmbedder(cfg)
	for _, t := range traditions {
		if err := indexCollection(cmd, embedder, filepath.Join(flagCorpusDir, t.Collection)); err != nil {
			return fmt.Errorf("indexing %s: %w", t.Collection, err)
		}
	}
	return nil
}

func indexCollection(cmd *cobra.Command, embedder *index.Embedder, dir string) error {
	segments, err := corpus.LoadSegments(filepath.Join(dir, corpus.SegmentsFile))
	if err != nil {
		return err
	}

	slog.Info("embedding collection", "dir", dir, "segments", len(segments))

	vectors := make([][]float32, 0, len(segments))
	for i := 0; i < len(segments); i += indexBatchSize {
		end := i + indexBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		texts := make([]string, end-i)
		for j, seg := range segments[i:end] {
			texts[j] = seg.Text
		}

		batch, err := embedder.EmbedBatch(cmd.Context(), texts)
		if err != nil {
			return err
		}
		for _, vec := range batch {
			vectors = append(vectors, index.NormalizeL2(vec))
		}
		slog.Debug("embedded batch", "dir", dir, "done", end, "total", len(segments))
	}

	if err := corpus.WriteIndex(dir, embedder.Model(), vectors, true); err != nil {
		return err
	}
	slog.Info("wrote index", "dir", dir, "vectors", len(vectors), "model", embedder.Model())
	return nil
}
