package analyses

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexguard-backend/internal/llm"
)

var contractText = strings.Repeat("The Supplier shall indemnify the Customer against all losses. ", 4)

func TestAnalyzeRejectsEmptyTextBeforeProviderCall(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	gen := &Generator{LLM: fake}

	for _, text := range []string{"", "   \n\t"} {
		_, err := gen.Analyze(context.Background(), text, "NDA", nil)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Zero(t, fake.calls)
}

func TestAnalyzeRejectsShortText(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	gen := &Generator{LLM: fake}

	_, err := gen.Analyze(context.Background(), "Too short to be a contract.", "NDA", nil)
	assert.ErrorIs(t, err, ErrTextTooShort)
	assert.Zero(t, fake.calls)
}

func TestAnalyzeRequestShape(t *testing.T) {
	fake := &fakeLLM{content: validPayload, model: "gpt-4o-2024"}
	gen := &Generator{LLM: fake}

	out, err := gen.Analyze(context.Background(), contractText, "Master Services Agreement", &UserContext{Role: "vendor"})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "gpt-4o-2024", out.Model)
	assert.Equal(t, RiskHigh, out.Result.OverallRisk)

	require.Equal(t, 1, fake.calls)
	assert.True(t, fake.last.JSON)
	assert.InDelta(t, 0.2, fake.last.Temperature, 0.0001)
	require.Len(t, fake.last.Messages, 2)
	assert.Equal(t, llm.RoleSystem, fake.last.Messages[0].Role)
	assert.Contains(t, fake.last.Messages[0].Content, "is a vendor")
	assert.Equal(t, llm.RoleUser, fake.last.Messages[1].Role)
	assert.Contains(t, fake.last.Messages[1].Content, "Master Services Agreement")
	assert.Contains(t, fake.last.Messages[1].Content, strings.TrimSpace(contractText))
}

func TestAnalyzeDegradesOnProse(t *testing.T) {
	raw := "Sorry, I cannot produce JSON for this document."
	gen := &Generator{LLM: &fakeLLM{content: raw}}

	out, err := gen.Analyze(context.Background(), contractText, "NDA", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, out.Status)
	assert.Equal(t, raw, out.Result.Summary)
	assert.Empty(t, out.Result.RedFlags)
	assert.Empty(t, out.Result.Recommendations)
	assert.Equal(t, RiskMedium, out.Result.OverallRisk)
}

func TestAnalyzeSurfacesProviderError(t *testing.T) {
	perr := &llm.ProviderError{Kind: llm.KindStatus, StatusCode: 503, Body: "overloaded"}
	gen := &Generator{LLM: &fakeLLM{err: perr}}

	_, err := gen.Analyze(context.Background(), contractText, "NDA", nil)
	require.Error(t, err)
	got, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, 503, got.StatusCode)
}

func TestAnalyzeTruncatesLongText(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	gen := &Generator{LLM: fake, MaxPromptChars: 80}

	out, err := gen.Analyze(context.Background(), strings.Repeat("x", 500), "NDA", nil)
	require.NoError(t, err)
	assert.True(t, out.Truncated)
	assert.NotContains(t, fake.last.Messages[1].Content, strings.Repeat("x", 81))
}

func TestAnalyzeHonorsRedFlagCap(t *testing.T) {
	raw := `{"summary":"s","overallRisk":"high","redFlags":[{"type":"critical","title":"a"},{"type":"critical","title":"b"},{"type":"critical","title":"c"}]}`
	gen := &Generator{LLM: &fakeLLM{content: raw}, MaxRedFlags: 2}

	out, err := gen.Analyze(context.Background(), contractText, "NDA", nil)
	require.NoError(t, err)
	require.Len(t, out.Result.RedFlags, 2)
	assert.Equal(t, "b", out.Result.RedFlags[1].Title)
}
