package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	parable "github.com/parable-gpt/parable"
)

// appendTranscript appends one TOML-formatted exchange to path.
// res is nil when generation failed; genErr carries the failure.
func appendTranscript(path string, req *parable.Request, res *parable.Result, genErr error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		slog.Warn("cannot open transcript file", "path", path, "error", err)
		return
	}
	defer f.Close()
	writeEntry(f, req, res, genErr)
}

// writeEntry writes a single TOML-formatted entry to w.
func writeEntry(w io.Writer, req *parable.Request, res *parable.Result, genErr error) {
	fmt.Fprintf(w, "# %s\n\n", strings.Repeat("═", 60))

	fmt.Fprintln(w, "[request]")
	fmt.Fprintf(w, "timestamp = %s\n", tomlQuote(time.Now().Format(time.RFC3339)))
	fmt.Fprintf(w, "tradition = %s\n", tomlQuote(req.Tradition))
	fmt.Fprintf(w, "topic = %s\n", tomlQuote(req.Topic))
	if req.WordCount > 0 {
		fmt.Fprintf(w, "word_count = %d\n", req.WordCount)
	}
	if req.Instructions != "" {
		fmt.Fprintf(w, "instructions = %s\n", tomlQuote(req.Instructions))
	}
	fmt.Fprintln(w)

	if genErr != nil {
		fmt.Fprintln(w, "[error]")
		fmt.Fprintf(w, "message = %s\n", tomlQuote(genErr.Error()))
		fmt.Fprintln(w)
		return
	}

	for _, p := range res.Passages {
		fmt.Fprintln(w, "[[sources]]")
		fmt.Fprintf(w, "ref = %s\n", tomlQuote(p.Ref))
		fmt.Fprintf(w, "score = %.3f\n", p.Score)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "[parable]")
	if res.Parable.Title != "" {
		fmt.Fprintf(w, "title = %s\n", tomlQuote(res.Parable.Title))
	}
	fmt.Fprintf(w, "body = %s\n", tomlQuote(res.Parable.Body))
	if res.Parable.Moral != "" {
		fmt.Fprintf(w, "moral = %s\n", tomlQuote(res.Parable.Moral))
	}
	fmt.Fprintln(w)
}

// tomlQuote returns a TOML basic-string quoted value.
func tomlQuote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
