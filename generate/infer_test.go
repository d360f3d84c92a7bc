package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateChatCompletions(t *testing.T) {
	var gotReq chatCompletionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Title: X\nBody.\nMoral: Y"}}]}`))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, "key", "test-model", "chat_completions", 256, 0.7, nil)
	out, err := g.Generate(context.Background(), "system says", "user says")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Title: X") {
		t.Errorf("unexpected output: %q", out)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
	if gotReq.Model != "test-model" || gotReq.MaxTokens != 256 {
		t.Errorf("unexpected request fields: %+v", gotReq)
	}
}

func TestGenerateResponsesAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"a parable"}]}]}`))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, "", "test-model", "responses", 0, 0, nil)
	out, err := g.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatal(err)
	}
	if out != "a parable" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestGenerateAPIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, "", "test-model", "chat_completions", 0, 0, nil)
	_, err := g.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry status: %v", err)
	}
}

func TestGenerateAPIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"context window exceeded","type":"invalid_request"}}`))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, "", "test-model", "chat_completions", 0, 0, nil)
	_, err := g.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "context window exceeded") {
		t.Fatalf("expected API error message, got %v", err)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL, "", "test-model", "chat_completions", 0, 0, nil)
	if _, err := g.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
