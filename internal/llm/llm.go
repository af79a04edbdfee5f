package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role names a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completions conversation.
type Message struct {
	Role    Role
	Content string
}

// Request describes one completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	// JSON asks the provider for a JSON object response. The content is still untrusted.
	JSON bool
}

// Usage reports token accounting returned by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the provider's reply.
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Client abstracts the LLM provider. Implementations never retry.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindUnreachable ErrorKind = "unreachable"
	KindStatus      ErrorKind = "status"
	KindCredentials ErrorKind = "credentials"
	KindResponse    ErrorKind = "response"
)

// ErrMissingCredentials is wrapped by the ProviderError returned when no API key is configured.
var ErrMissingCredentials = errors.New("provider credentials missing")

// ProviderError is a failure of the upstream provider. Body holds the raw
// upstream response for operator logs and must not be shown to end users.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("llm provider %s: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("llm provider %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("llm provider %s", e.Kind)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError reports whether err is (or wraps) a ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
