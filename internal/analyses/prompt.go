package analyses

import (
	"fmt"
	"strings"

	"lexguard-backend/internal/shared/util"
)

const analystPersona = `You are a senior legal analyst who reviews commercial contracts for business users.
Read the contract and report the risks it creates for the user. Be concrete and quote or cite the clause behind each risk.
You do not give formal legal advice; you flag issues worth raising with counsel.

Respond with a single JSON object and nothing else, using exactly this shape:
{
  "summary": "3-4 sentence plain-language summary of the contract and its main risks",
  "redFlags": [
    {
      "type": "critical | warning | minor",
      "title": "short label",
      "description": "what the problem is and why it matters",
      "clause": "the clause text or reference",
      "recommendation": "what to negotiate or change"
    }
  ],
  "overallRisk": "low | medium | high",
  "recommendations": ["next step"],
  "dealParties": ["party name"],
  "companiesInvolved": ["company name"],
  "dealRoom": "short deal category label",
  "playbook": "short playbook label"
}
List red flags from most to least severe, at most %d of them.`

// buildSystemPrompt renders the persona plus one sentence per populated user context field.
func buildSystemPrompt(uc *UserContext, maxRedFlags int) string {
	var b strings.Builder
	fmt.Fprintf(&b, analystPersona, maxRedFlags)

	if uc == nil {
		return b.String()
	}
	var clauses []string
	if role := strings.TrimSpace(uc.Role); role != "" {
		clauses = append(clauses, fmt.Sprintf("The user reviewing this contract is a %s; assess risk from their side of the deal.", role))
	}
	if goals := compact(uc.Goals); len(goals) > 0 {
		clauses = append(clauses, fmt.Sprintf("Their goals for this deal: %s.", strings.Join(goals, "; ")))
	}
	if types := compact(uc.ContractTypes); len(types) > 0 {
		clauses = append(clauses, fmt.Sprintf("They mostly handle these contract types: %s.", strings.Join(types, ", ")))
	}
	if tol := strings.TrimSpace(uc.RiskTolerance); tol != "" {
		clauses = append(clauses, fmt.Sprintf("Their risk tolerance is %s; calibrate severities and overallRisk to it.", tol))
	}
	if len(clauses) > 0 {
		b.WriteString("\n\nAbout the user:\n")
		b.WriteString(strings.Join(clauses, "\n"))
	}
	return b.String()
}

// buildUserPrompt embeds the title and text. Text over maxChars runes is cut
// at exactly maxChars.
func buildUserPrompt(title, text string, maxChars int) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled document"
	}
	body, truncated := util.Truncate(text, maxChars)

	var b strings.Builder
	fmt.Fprintf(&b, "Document title: %s\n\nContract text:\n%s", title, body)
	if truncated {
		b.WriteString("\n\n[The contract text was truncated for length.]")
	}
	return b.String(), truncated
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
