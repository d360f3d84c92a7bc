package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator performs text generation via an OpenAI-compatible API.
type Generator struct {
	baseURL     string
	apiKey      string
	model       string
	apiType     string // "chat_completions" or "responses"
	maxTokens   int
	temperature float64
	stop        []string
	client      *http.Client
}

// NewGenerator creates a generator from config values.
func NewGenerator(baseURL, apiKey, model, apiType string, maxTokens int, temperature float64, stop []string) *Generator {
	return &Generator{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		apiType:     apiType,
		maxTokens:   maxTokens,
		temperature: temperature,
		stop:        stop,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate sends the prompts to the API and returns the response text.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if g.apiType == "responses" {
		return g.generateResponses(ctx, systemPrompt, userMessage)
	}
	return g.generateChatCompletions(ctx, systemPrompt, userMessage)
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// --- Chat Completions API ---

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func (g *Generator) generateChatCompletions(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := chatCompletionsRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stop:        g.stop,
	}

	var result chatCompletionsResponse
	if err := g.post(ctx, "/chat/completions", reqBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}

// --- Responses API ---

type responsesRequest struct {
	Model       string           `json:"model"`
	Input       []responsesInput `json:"input"`
	MaxTokens   int              `json:"max_output_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
	Stop        []string         `json:"stop,omitempty"`
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Error *apiError `json:"error,omitempty"`
}

func (g *Generator) generateResponses(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := responsesRequest{
		Model: g.model,
		Input: []responsesInput{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stop:        g.stop,
	}

	var result responsesResponse
	if err := g.post(ctx, "/responses", reqBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("API error: %s", result.Error.Message)
	}
	for _, out := range result.Output {
		if out.Type == "message" {
			for _, c := range out.Content {
				if c.Type == "output_text" {
					return c.Text, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// post sends a JSON request to the API and decodes the JSON response into out.
func (g *Generator) post(ctx context.Context, path string, reqBody, out any) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != 200 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w (body: %s)", err, string(body))
	}
	return nil
}
