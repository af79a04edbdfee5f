package analyses

import (
	"context"

	"lexguard-backend/internal/llm"
)

type fakeLLM struct {
	content string
	model   string
	err     error
	calls   int
	last    llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	model := f.model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return llm.Completion{Content: f.content, Model: model}, nil
}
