// Package cmd implements the parable command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	parable "github.com/parable-gpt/parable"
	"github.com/parable-gpt/parable/corpus"
	"github.com/parable-gpt/parable/generate"
	"github.com/parable-gpt/parable/index"
	"github.com/parable-gpt/parable/tradition"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	flagCorpusDir string
	flagVerbose   bool
	flagLog       string
)

var rootCmd = &cobra.Command{
	Use:          "parable",
	Short:        "Generate retrieval-augmented parables from four religious texts",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Parable generates original parables in the style of Christianity, Buddhism,
Islam, or Taoism. For each topic it retrieves the most similar passages from
the tradition's source text and asks a locally running language model to write
a new parable grounded in them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCorpusDir, "corpus", "corpus", "corpus root directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().StringVar(&flagLog, "log", "", "append a TOML transcript of each exchange to this file")
	rootCmd.AddCommand(searchCmd, indexCmd, versionCmd)
}

// Execute is called by main.
func Execute() {
	godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the user config and logs any validation warnings.
func loadConfig() (*parable.Config, error) {
	cfg, err := parable.LoadConfig()
	if err != nil {
		return nil, err
	}
	for _, warning := range parable.ValidateConfig(cfg) {
		slog.Warn(warning)
	}
	return cfg, nil
}

// newEmbedder builds the embedding API client from config.
func newEmbedder(cfg *parable.Config) *index.Embedder {
	return index.NewEmbedder(
		parable.ResolveRetrievalBaseURL(cfg),
		parable.ResolveRetrievalAPIKey(cfg),
		parable.ResolveRetrievalModel(cfg),
	)
}

// openEngine loads the named corpus collections into a retriever and wires a
// generation engine around them.
func openEngine(cfg *parable.Config, reg *tradition.Registry, collections []string) (*generate.Engine, error) {
	retriever := index.NewRetriever(newEmbedder(cfg), cacheTTL(cfg))

	wantModel := parable.ResolveRetrievalModel(cfg)
	for _, name := range collections {
		dir := filepath.Join(flagCorpusDir, name)
		col, err := corpus.Load(dir, wantModel)
		if err != nil {
			retriever.Close()
			return nil, fmt.Errorf("cannot load collection %q: %w\n  (run 'parable index' to build embedding indexes)", name, err)
		}
		if err := retriever.AddCollection(name, col); err != nil {
			retriever.Close()
			return nil, err
		}
		slog.Debug("indexed collection", "collection", name, "segments", col.Len(), "dim", col.Manifest.Dim)
	}

	return generate.NewEngine(cfg, reg, retriever), nil
}

func cacheTTL(cfg *parable.Config) time.Duration {
	return time.Duration(cfg.Retrieval.CacheTTLMinutes) * time.Minute
}
