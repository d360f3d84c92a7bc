// Package generate orchestrates passage retrieval and model inference to
// produce parables.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	parable "github.com/parable-gpt/parable"
	"github.com/parable-gpt/parable/index"
	"github.com/parable-gpt/parable/tradition"
)

// DefaultTopK is used when the config does not specify a retrieval limit.
const DefaultTopK = 6

// Engine orchestrates retrieval and model inference for parable requests.
type Engine struct {
	registry     *tradition.Registry
	retriever    *index.Retriever
	generator    *Generator
	topK         int
	customPrompt string // loaded custom prompt template (empty = use default)
}

// NewEngine creates an engine wired to the given registry and retriever.
func NewEngine(cfg *parable.Config, registry *tradition.Registry, retriever *index.Retriever) *Engine {
	gen := NewGenerator(
		parable.ResolveGenerationBaseURL(cfg),
		parable.ResolveGenerationAPIKey(cfg),
		parable.ResolveGenerationModel(cfg),
		cfg.Generation.APIType,
		cfg.Generation.MaxTokens,
		cfg.Generation.Temperature,
		cfg.Generation.Stop,
	)

	topK := cfg.Retrieval.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Engine{
		registry:     registry,
		retriever:    retriever,
		generator:    gen,
		topK:         topK,
		customPrompt: loadCustomPrompt(),
	}
}

// loadCustomPrompt loads a custom prompt template from the config directory.
// Returns empty string if no custom prompt exists.
func loadCustomPrompt() string {
	promptPath := parable.PromptPath()
	data, err := os.ReadFile(promptPath)
	if err != nil {
		return ""
	}
	slog.Info("loaded custom prompt", "path", promptPath)
	return string(data)
}

// Close releases resources held by the engine.
func (e *Engine) Close() {
	if e.retriever != nil {
		e.retriever.Close()
	}
}

// Retrieve returns the passages the engine would ground a parable on,
// with citations rendered for the tradition.
func (e *Engine) Retrieve(ctx context.Context, traditionName, topic string, k int) ([]parable.Passage, error) {
	t, err := e.registry.Get(traditionName)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = e.topK
	}

	matches, err := e.retriever.Search(ctx, t.Collection, topic, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed for %s: %w", t.Collection, err)
	}

	passages := make([]parable.Passage, len(matches))
	for i, m := range matches {
		ref, err := t.FormatRef(m.Segment)
		if err != nil {
			return nil, err
		}
		passages[i] = parable.Passage{Ref: ref, Text: m.Segment.Text, Score: m.Score}
	}
	return passages, nil
}

// Generate retrieves passages for the request's topic and asks the model for
// a parable in the tradition's style.
func (e *Engine) Generate(ctx context.Context, req *parable.Request) (*parable.Result, error) {
	t, err := e.registry.Get(req.Tradition)
	if err != nil {
		return nil, err
	}

	passages, err := e.Retrieve(ctx, req.Tradition, req.Topic, e.topK)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("no passages retrieved from %s for topic %q", t.Collection, req.Topic)
	}

	systemPrompt := e.buildSystemPrompt(t, req.WordCount)
	userMessage := buildUserMessage(req, t, passages)

	slog.Debug("prompt", "system", systemPrompt, "user", userMessage)

	output, err := e.generator.Generate(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &parable.Result{
		Parable:  ParseParable(output),
		Passages: passages,
	}, nil
}
