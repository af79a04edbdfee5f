package analyses

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/telemetry"
)

const (
	analysisTemperature   = 0.2
	defaultMaxPromptChars = 100000
	defaultMinTextLength  = 50
)

// Generator runs the contract analysis prompt against the provider.
type Generator struct {
	LLM            llm.Client
	MaxRedFlags    int
	MaxPromptChars int
	MinTextLength  int
}

// Analyze returns a well-formed result whenever the provider answered,
// degraded if its output could not be parsed. Provider failures are returned
// as *llm.ProviderError and are never retried.
func (g *Generator) Analyze(ctx context.Context, text, documentTitle string, uc *UserContext) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, ErrEmptyText
	}
	minLen := g.MinTextLength
	if minLen <= 0 {
		minLen = defaultMinTextLength
	}
	if utf8.RuneCountInString(text) < minLen {
		return Outcome{}, ErrTextTooShort
	}
	maxChars := g.MaxPromptChars
	if maxChars <= 0 {
		maxChars = defaultMaxPromptChars
	}
	maxFlags := g.MaxRedFlags
	if maxFlags <= 0 {
		maxFlags = DefaultMaxRedFlags
	}

	ctx, span := telemetry.Tracer().Start(ctx, "analyses.Analyze")
	defer span.End()

	userPrompt, truncated := buildUserPrompt(documentTitle, text, maxChars)
	completion, err := g.LLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: buildSystemPrompt(uc, maxFlags)},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		Temperature: analysisTemperature,
		JSON:        true,
	})
	if err != nil {
		span.RecordError(err)
		metrics.ObserveAnalysis("provider_error")
		return Outcome{}, err
	}

	result, ok := Repair(completion.Content, maxFlags)
	status := StatusOK
	if !ok {
		status = StatusDegraded
		telemetry.Warn("analysis.degraded", map[string]any{
			"model":       completion.Model,
			"raw_length":  len(completion.Content),
			"text_length": len(text),
		})
	}
	span.SetAttributes(
		attribute.String("analysis.status", string(status)),
		attribute.String("analysis.overall_risk", string(result.OverallRisk)),
		attribute.Int("analysis.red_flags", len(result.RedFlags)),
		attribute.Bool("analysis.truncated", truncated),
	)
	metrics.ObserveAnalysis(string(status))

	return Outcome{
		Result:    result,
		Status:    status,
		Model:     completion.Model,
		Truncated: truncated,
	}, nil
}
