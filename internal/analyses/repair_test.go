package analyses

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
  "summary": "A services agreement between Acme and Beta. Liability is uncapped.",
  "redFlags": [
    {"type": "critical", "title": "Uncapped liability", "description": "No cap.", "clause": "12.1", "recommendation": "Cap at fees paid."},
    {"type": "Warning", "title": "Auto renewal", "description": "Renews yearly.", "clause": "3.2", "recommendation": "Add notice window."}
  ],
  "overallRisk": "high",
  "recommendations": ["Negotiate a liability cap", 42, ""],
  "dealParties": ["Acme Corp", "Beta LLC"],
  "companiesInvolved": ["Acme Corp"],
  "dealRoom": "vendor",
  "playbook": "saas-procurement"
}`

func TestRepairValidPayload(t *testing.T) {
	res, ok := Repair(validPayload, 10)
	require.True(t, ok)

	assert.Equal(t, RiskHigh, res.OverallRisk)
	require.Len(t, res.RedFlags, 2)
	assert.Equal(t, SeverityCritical, res.RedFlags[0].Type)
	assert.Equal(t, SeverityWarning, res.RedFlags[1].Type)
	assert.Equal(t, "12.1", res.RedFlags[0].Clause)
	assert.Equal(t, []string{"Negotiate a liability cap"}, res.Recommendations)
	assert.Equal(t, []string{"Acme Corp", "Beta LLC"}, res.DealParties)
	assert.Equal(t, "vendor", res.DealRoom)
	assert.Equal(t, "saas-procurement", res.Playbook)
}

func TestRepairStripsFenceAndCommentary(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n" + validPayload + "\n```\nLet me know if you need more."
	res, ok := Repair(raw, 10)
	require.True(t, ok)
	assert.Equal(t, RiskHigh, res.OverallRisk)

	fenced := "```json\n" + validPayload + "\n```"
	res, ok = Repair(fenced, 10)
	require.True(t, ok)
	assert.Len(t, res.RedFlags, 2)
}

func TestRepairDegradesOnInvalidJSON(t *testing.T) {
	for _, raw := range []string{
		"I could not analyze this contract.",
		"{ this is not json }",
		"",
		"} backwards {",
	} {
		res, ok := Repair(raw, 10)
		assert.False(t, ok, raw)
		assert.Equal(t, raw, res.Summary)
		assert.Equal(t, RiskMedium, res.OverallRisk)
		assert.NotNil(t, res.RedFlags)
		assert.Empty(t, res.RedFlags)
		assert.NotNil(t, res.Recommendations)
		assert.Empty(t, res.Recommendations)
		assert.NotNil(t, res.DealParties)
		assert.NotNil(t, res.CompaniesInvolved)
	}
}

func TestRepairCoercesOutOfEnumValues(t *testing.T) {
	raw := `{"summary":"s","overallRisk":"catastrophic","redFlags":[{"type":"severe","title":"t"},{"type":"MINOR","title":"u"}]}`
	res, ok := Repair(raw, 10)
	require.True(t, ok)

	assert.Equal(t, RiskLow, res.OverallRisk)
	assert.Equal(t, SeverityMinor, res.RedFlags[0].Type)
	assert.Equal(t, SeverityMinor, res.RedFlags[1].Type)
}

func TestRepairMissingRiskDefaultsLow(t *testing.T) {
	res, ok := Repair(`{"summary":"s"}`, 10)
	require.True(t, ok)
	assert.Equal(t, RiskLow, res.OverallRisk)
	assert.Empty(t, res.RedFlags)
}

func TestRepairCapsRedFlagsInEmittedOrder(t *testing.T) {
	flags := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		flags = append(flags, fmt.Sprintf(`{"type":"warning","title":"flag-%02d"}`, i))
	}
	raw := `{"summary":"s","overallRisk":"medium","redFlags":[` + strings.Join(flags, ",") + `]}`

	res, ok := Repair(raw, 10)
	require.True(t, ok)
	require.Len(t, res.RedFlags, 10)
	for i, f := range res.RedFlags {
		assert.Equal(t, fmt.Sprintf("flag-%02d", i), f.Title)
	}
}

func TestRepairIgnoresMalformedListItems(t *testing.T) {
	raw := `{"summary":"s","overallRisk":"low","redFlags":["not an object",{"type":"critical","title":"ok"}],"dealParties":"Acme"}`
	res, ok := Repair(raw, 10)
	require.True(t, ok)
	require.Len(t, res.RedFlags, 1)
	assert.Equal(t, "ok", res.RedFlags[0].Title)
	assert.Empty(t, res.DealParties)
}
