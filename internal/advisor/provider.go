// Package advisor generates portfolio advisory text through an LLM
// provider with a bounded, configurable retry policy.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/finwatch/finwatch/internal/config"
)

// Provider is the interface to the LLM backend.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// HTTPProvider calls an OpenAI-compatible chat-completions endpoint.
type HTTPProvider struct {
	BaseURL string
	Model   string
	APIKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider from config.
func NewHTTPProvider(cfg config.Advisor) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  os.Getenv(cfg.APIKeyEnv),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (p *HTTPProvider) IsConfigured() bool {
	return p.APIKey != ""
}

// Generate sends a prompt and returns the completion text.
func (p *HTTPProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("advisor API key not configured")
	}

	body := map[string]any{
		"model": p.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": 0.3,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("advisor API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	return result.Choices[0].Message.Content, nil
}
