package generate

import (
	"log/slog"
	"strings"
	"text/template"

	parable "github.com/parable-gpt/parable"
	defaults "github.com/parable-gpt/parable/default"
	"github.com/parable-gpt/parable/tradition"
)

// PromptData holds the data passed to the system prompt template.
type PromptData struct {
	Tradition string
	Style     string
	WordCount int
}

// buildSystemPrompt renders the system prompt from the template.
func (e *Engine) buildSystemPrompt(t *tradition.Tradition, wordCount int) string {
	tmplSrc := e.customPrompt
	if tmplSrc == "" {
		tmplSrc = defaults.DefaultPrompt
	}

	data := PromptData{
		Tradition: t.Name,
		Style:     t.Style,
		WordCount: wordCount,
	}

	tmpl, err := template.New("prompt").Parse(tmplSrc)
	if err != nil {
		slog.Warn("failed to parse prompt template, falling back to default", "error", err)
		tmpl, _ = template.New("prompt").Parse(defaults.DefaultPrompt)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Warn("failed to execute prompt template, falling back to default", "error", err)
		tmpl, _ = template.New("prompt").Parse(defaults.DefaultPrompt)
		buf.Reset()
		tmpl.Execute(&buf, data)
	}

	return strings.TrimRight(buf.String(), " \t\n")
}

// buildUserMessage constructs the user message: topic, constraints, and the
// retrieved passages with their citations.
func buildUserMessage(req *parable.Request, t *tradition.Tradition, passages []parable.Passage) string {
	var sb strings.Builder

	sb.WriteString("Topic: ")
	sb.WriteString(req.Topic)
	sb.WriteString("\n\n")

	if strings.TrimSpace(req.Instructions) != "" {
		sb.WriteString("User constraints (follow these carefully):\n")
		sb.WriteString(strings.TrimSpace(req.Instructions))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Relevant ")
	sb.WriteString(t.SourceLabel)
	sb.WriteString(" (imitate this tone and writing style as exactly as possible):\n\n")
	sb.WriteString(formatSources(passages))
	sb.WriteString("\n\nNow write the parable.")

	return sb.String()
}

// formatSources renders passages as "citation\ntext" blocks joined by blank lines.
func formatSources(passages []parable.Passage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = p.Ref + "\n" + p.Text
	}
	return strings.Join(blocks, "\n\n")
}
