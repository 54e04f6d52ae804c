package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/finwatch/finwatch/internal/config"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. An assistant message mutates while its
// stream is open and freezes when the stream closes or errors.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request is the chat backend invocation body.
type request struct {
	Message   string          `json:"message"`
	Flags     map[string]bool `json:"flags,omitempty"`
	SessionID string          `json:"sessionId"`
	History   []Message       `json:"history"`
}

// Client streams assistant replies from the chat backend. The backend
// itself is an opaque boundary: a request goes out, newline-delimited
// JSON comes back.
type Client struct {
	backendURL   string
	apiKey       string
	historyTurns int
	timeout      time.Duration
	httpClient   *http.Client
}

// NewClient creates a Client from config.
func NewClient(cfg config.Chat) *Client {
	turns := cfg.HistoryTurns
	if turns <= 0 {
		turns = 6
	}
	return &Client{
		backendURL:   cfg.BackendURL,
		apiKey:       os.Getenv(cfg.APIKeyEnv),
		historyTurns: turns,
		timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
		httpClient:   &http.Client{},
	}
}

// Stream sends a message and consumes the streamed reply through the
// given assembler. History is bounded to the trailing configured number
// of turns. A transport failure before or during consumption surfaces
// the fallback message through the assembler's sink.
func (c *Client) Stream(ctx context.Context, asm *Assembler, text, sessionID string, flags map[string]bool, history []Message) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if len(history) > c.historyTurns {
		history = history[len(history)-c.historyTurns:]
	}

	body, err := json.Marshal(request{
		Message:   text,
		Flags:     flags,
		SessionID: sessionID,
		History:   history,
	})
	if err != nil {
		return fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL, bytes.NewReader(body))
	if err != nil {
		asm.fail()
		return fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		asm.fail()
		return fmt.Errorf("chat backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		asm.fail()
		return fmt.Errorf("chat backend returned %d", resp.StatusCode)
	}

	return asm.Consume(ctx, resp.Body)
}
