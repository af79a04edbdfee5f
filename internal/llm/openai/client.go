package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	maxBodyLog     = 4096
)

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client
}

// Client implements llm.Client using an OpenAI-compatible Chat Completions API.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a Client. A missing API key is reported as a
// credentials ProviderError.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &llm.ProviderError{Kind: llm.KindCredentials, Err: llm.ErrMissingCredentials}
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		endpoint:   base + "/chat/completions",
		httpClient: httpClient,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete issues exactly one chat-completions request.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	start := time.Now()
	completion, err := c.complete(ctx, req)
	outcome := "ok"
	if pe, ok := llm.AsProviderError(err); ok {
		outcome = string(pe.Kind)
		telemetry.Error("llm.request.failed", map[string]any{
			"model":       c.model,
			"kind":        string(pe.Kind),
			"status_code": pe.StatusCode,
			"upstream":    truncateBody(pe.Body),
			"err":         pe.Error(),
		})
	} else if err != nil {
		outcome = "error"
	}
	metrics.ObserveProviderRequest(outcome, time.Since(start))
	return completion, err
}

func (c *Client) complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	temp := req.Temperature
	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temp,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Completion{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return llm.Completion{}, err
		}
		return llm.Completion{}, &llm.ProviderError{Kind: llm.KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, &llm.ProviderError{Kind: llm.KindUnreachable, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return llm.Completion{}, &llm.ProviderError{Kind: llm.KindCredentials, StatusCode: resp.StatusCode, Body: string(raw)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return llm.Completion{}, &llm.ProviderError{Kind: llm.KindStatus, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Completion{}, &llm.ProviderError{Kind: llm.KindResponse, Body: string(raw), Err: err}
	}
	if parsed.Error != nil {
		return llm.Completion{}, &llm.ProviderError{
			Kind: llm.KindResponse,
			Body: string(raw),
			Err:  fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type),
		}
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, &llm.ProviderError{Kind: llm.KindResponse, Body: string(raw), Err: errors.New("missing choices")}
	}

	out := llm.Completion{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
	}
	if out.Model == "" {
		out.Model = c.model
	}
	if parsed.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	telemetry.Info("llm.response", map[string]any{
		"model":             out.Model,
		"prompt_tokens":     out.Usage.PromptTokens,
		"completion_tokens": out.Usage.CompletionTokens,
		"total_tokens":      out.Usage.TotalTokens,
	})
	return out, nil
}

func truncateBody(body string) string {
	if len(body) <= maxBodyLog {
		return body
	}
	return body[:maxBodyLog]
}

var _ llm.Client = (*Client)(nil)
