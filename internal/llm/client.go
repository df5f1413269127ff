// Package llm provides a chat-completions client for OpenAI-compatible
// backends, including the tool-calling message shapes the scan agent needs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	requestTimeout       = 120 * time.Second
	retryMaxElapsed      = 60 * time.Second
)

// ToolDef describes one callable tool advertised to the model. Parameters is
// the raw JSON schema of the tool's input.
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// FunctionCall is the function portion of a tool call requested by the model.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one chat message. Tool results are sent with Role "tool" and
// the originating ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewClientFromEnv creates a client for the given model. Credentials come
// from the environment; a .env file is loaded best-effort first.
//
// Models prefixed "gpt-" or "o" use the OpenAI API and require
// OPENAI_API_KEY. Any other model requires OPENAI_BASE_URL pointing at an
// OpenAI-compatible server (API key optional).
func NewClientFromEnv(model string) (*Client, error) {
	if model == "" {
		return nil, errors.New("model is required")
	}

	// Ignore the error if .env doesn't exist; the variables may be set in
	// the environment directly.
	_ = godotenv.Load()

	baseURL := strings.TrimSuffix(os.Getenv("OPENAI_BASE_URL"), "/")
	apiKey := os.Getenv("OPENAI_API_KEY")

	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o"):
		if apiKey == "" {
			return nil, errors.New("the environment variable OPENAI_API_KEY is required to use OpenAI models")
		}
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
	default:
		if baseURL == "" {
			return nil, fmt.Errorf("unsupported LLM model %q: set OPENAI_BASE_URL to use an OpenAI-compatible server", model)
		}
	}

	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Tools    []requestTool `json:"tools,omitempty"`
}

type requestTool struct {
	Type     string          `json:"type"`
	Function requestFunction `json:"function"`
}

type requestFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends the conversation and tool definitions to the model and returns
// the assistant's reply. Retryable transport failures and server errors are
// retried with exponential backoff.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Message, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: messages,
	}
	for _, tool := range tools {
		req.Tools = append(req.Tools, requestTool{
			Type: "function",
			Function: requestFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	var reply *Message
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed

	err = backoff.Retry(func() error {
		var err error
		reply, err = c.chatOnce(ctx, body)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))

	return reply, err
}

func (c *Client) chatOnce(ctx context.Context, body []byte) (*Message, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("chat request returned HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chat backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("chat response contained no choices")
	}

	return &parsed.Choices[0].Message, nil
}

// HTTPStatusError wraps HTTP errors with status code information.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return e.Err.Error()
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// isRetryable reports whether a chat failure is worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}

	return false
}
