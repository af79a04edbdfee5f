package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestProviderErrorWrapping(t *testing.T) {
	base := &ProviderError{Kind: KindCredentials, Err: ErrMissingCredentials}
	wrapped := fmt.Errorf("analyze: %w", base)

	pe, ok := AsProviderError(wrapped)
	if !ok {
		t.Fatalf("expected ProviderError")
	}
	if pe.Kind != KindCredentials {
		t.Fatalf("unexpected kind %s", pe.Kind)
	}
	if !errors.Is(wrapped, ErrMissingCredentials) {
		t.Fatalf("expected errors.Is to reach ErrMissingCredentials")
	}
	if _, ok := AsProviderError(errors.New("other")); ok {
		t.Fatalf("plain error must not match")
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Kind: KindStatus, StatusCode: 429, Body: `{"error":"rate"}`}
	if got := err.Error(); got != "llm provider status: status 429" {
		t.Fatalf("unexpected message %q", got)
	}
}
