package chat

import (
	"fmt"
	"strings"

	"lexguard-backend/internal/analyses"
	"lexguard-backend/internal/llm"
)

const (
	DefaultGroundedWindow = 8
	DefaultGeneralWindow  = 15
)

const noLegalAdvice = "You are not a lawyer and must not present your answers as formal legal advice. When a question needs a definitive legal opinion, say so and suggest consulting qualified counsel."

const generalPersona = "You are a helpful assistant for business users who work with contracts. Explain contract concepts, typical clauses and negotiation options in plain language."

// AnalysisDigest is the compact view of a saved analysis embedded in grounded prompts.
type AnalysisDigest struct {
	Title           string
	Risk            string
	Summary         string
	RedFlags        []DigestFlag
	Recommendations []string
}

type DigestFlag struct {
	Title       string
	Description string
}

// DigestFromRecord builds the digest of a saved analysis.
func DigestFromRecord(rec analyses.Record) *AnalysisDigest {
	d := &AnalysisDigest{
		Title:           rec.SourceTitle,
		Risk:            string(rec.Result.OverallRisk),
		Summary:         rec.Result.Summary,
		Recommendations: rec.Result.Recommendations,
	}
	for _, f := range rec.Result.RedFlags {
		d.RedFlags = append(d.RedFlags, DigestFlag{Title: f.Title, Description: f.Description})
	}
	return d
}

// BuildContext assembles the provider conversation: one system message, at
// most window history entries in chronological order, then the new user
// message. history must already be chronological.
func BuildContext(mode Mode, digest *AnalysisDigest, history []Message, newMessage string, window int) []llm.Message {
	if window < 0 {
		window = 0
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: systemPrompt(mode, digest)})
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			continue
		}
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	out = append(out, llm.Message{Role: llm.RoleUser, Content: newMessage})
	return out
}

func systemPrompt(mode Mode, digest *AnalysisDigest) string {
	if mode != ModeGrounded || digest == nil {
		return generalPersona + "\n" + noLegalAdvice
	}

	var b strings.Builder
	b.WriteString("You are a contract review assistant answering follow-up questions about one specific document that has already been analyzed.\n")
	b.WriteString("Only answer questions about this document. If the user asks about something else, say that this conversation is limited to this contract.\n")
	b.WriteString(noLegalAdvice)
	b.WriteString("\n\nDocument: ")
	b.WriteString(orDefault(digest.Title, "Untitled document"))
	fmt.Fprintf(&b, "\nOverall risk: %s", orDefault(digest.Risk, "unknown"))
	fmt.Fprintf(&b, "\nSummary: %s", orDefault(digest.Summary, "(none)"))

	if len(digest.RedFlags) > 0 {
		b.WriteString("\n\nRed flags:")
		for _, f := range digest.RedFlags {
			fmt.Fprintf(&b, "\n- %s: %s", f.Title, f.Description)
		}
	}
	if len(digest.Recommendations) > 0 {
		b.WriteString("\n\nRecommendations:")
		for _, r := range digest.Recommendations {
			fmt.Fprintf(&b, "\n- %s", r)
		}
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
