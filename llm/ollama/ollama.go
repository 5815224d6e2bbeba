// Package ollama provides a text generator backed by a local Ollama
// instance.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vidyalab/vidya/llm"
)

var _ llm.Generator = (*Generator)(nil)

// Default configuration values. Generation is much slower than
// embedding, hence the long timeout.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "gemma2:2b"
	DefaultTimeout = 120 * time.Second
)

// Options configures the Ollama generator.
type Options struct {
	// BaseURL is the Ollama API base URL.
	BaseURL string

	// Model is the generation model to use.
	Model string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Temperature controls sampling randomness. Zero keeps the
	// server default.
	Temperature float64

	// MaxTokens caps the response length. Zero means no cap.
	MaxTokens int

	// HTTPClient overrides the default client; useful in tests.
	HTTPClient *http.Client
}

// Generator calls the Ollama /api/generate endpoint.
type Generator struct {
	client      *http.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

type generateRequest struct {
	Model   string      `json:"model"`
	Prompt  string      `json:"prompt"`
	Stream  bool        `json:"stream"`
	Options *genOptions `json:"options,omitempty"`
}

type genOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// New creates an Ollama generator.
func New(optFns ...func(o *Options)) *Generator {
	opts := Options{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Timeout: DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Generator{
		client:      client,
		baseURL:     opts.BaseURL,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

// Generate returns the model's completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	}
	if g.maxTokens > 0 || g.temperature > 0 {
		reqBody.Options = &genOptions{
			NumPredict:  g.maxTokens,
			Temperature: g.temperature,
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Response, nil
}

// ModelName returns the configured generation model name.
func (g *Generator) ModelName() string {
	return g.model
}
