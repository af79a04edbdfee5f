package analyses

import (
	"encoding/json"
	"strings"
)

const DefaultMaxRedFlags = 10

// Repair turns untrusted provider output into a well-formed AnalysisResult.
// ok is false when no JSON object could be parsed; the result is then a
// degraded report carrying the raw text as its summary.
func Repair(raw string, maxRedFlags int) (AnalysisResult, bool) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return degraded(raw), false
	}

	var top map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &top); err != nil {
		return degraded(raw), false
	}

	res := AnalysisResult{
		Summary:           asString(top["summary"]),
		OverallRisk:       Risk(asString(top["overallRisk"])),
		RedFlags:          asRedFlags(top["redFlags"]),
		Recommendations:   asStrings(top["recommendations"]),
		DealParties:       asStrings(top["dealParties"]),
		CompaniesInvolved: asStrings(top["companiesInvolved"]),
		DealRoom:          asString(top["dealRoom"]),
		Playbook:          asString(top["playbook"]),
	}
	return Normalize(res, maxRedFlags), true
}

// Normalize coerces enum fields to their safe defaults, caps red flags in
// emitted order and replaces nil lists with empty ones.
func Normalize(res AnalysisResult, maxRedFlags int) AnalysisResult {
	if maxRedFlags <= 0 {
		maxRedFlags = DefaultMaxRedFlags
	}
	res.OverallRisk = coerceRisk(res.OverallRisk)
	if len(res.RedFlags) > maxRedFlags {
		res.RedFlags = res.RedFlags[:maxRedFlags]
	}
	flags := make([]RedFlag, len(res.RedFlags))
	for i, f := range res.RedFlags {
		f.Type = coerceSeverity(f.Type)
		flags[i] = f
	}
	res.RedFlags = flags
	res.Recommendations = nonNil(res.Recommendations)
	res.DealParties = nonNil(res.DealParties)
	res.CompaniesInvolved = nonNil(res.CompaniesInvolved)
	return res
}

func degraded(raw string) AnalysisResult {
	return AnalysisResult{
		Summary:           raw,
		RedFlags:          []RedFlag{},
		OverallRisk:       RiskMedium,
		Recommendations:   []string{},
		DealParties:       []string{},
		CompaniesInvolved: []string{},
	}
}

func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func coerceRisk(r Risk) Risk {
	switch v := Risk(strings.ToLower(strings.TrimSpace(string(r)))); v {
	case RiskLow, RiskMedium, RiskHigh:
		return v
	}
	return RiskLow
}

func coerceSeverity(s Severity) Severity {
	switch v := Severity(strings.ToLower(strings.TrimSpace(string(s)))); v {
	case SeverityCritical, SeverityWarning, SeverityMinor:
		return v
	}
	return SeverityMinor
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asStrings keeps the non-empty string items of a JSON array.
func asStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asRedFlags(v any) []RedFlag {
	items, _ := v.([]any)
	out := make([]RedFlag, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, RedFlag{
			Type:           Severity(asString(m["type"])),
			Title:          asString(m["title"]),
			Description:    asString(m["description"]),
			Clause:         asString(m["clause"]),
			Recommendation: asString(m["recommendation"]),
		})
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
