package analyses

import "time"

// Severity of a single red flag.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityMinor    Severity = "minor"
)

// Risk is the overall risk level of a contract.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type RedFlag struct {
	Type           Severity `json:"type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Clause         string   `json:"clause"`
	Recommendation string   `json:"recommendation"`
}

// AnalysisResult is the structured risk report for one contract.
type AnalysisResult struct {
	Summary           string    `json:"summary"`
	RedFlags          []RedFlag `json:"redFlags"`
	OverallRisk       Risk      `json:"overallRisk"`
	Recommendations   []string  `json:"recommendations"`
	DealParties       []string  `json:"dealParties"`
	CompaniesInvolved []string  `json:"companiesInvolved"`
	DealRoom          string    `json:"dealRoom,omitempty"`
	Playbook          string    `json:"playbook,omitempty"`
}

// UserContext tailors the analysis to the person reviewing the contract.
// Empty fields are left out of the prompt.
type UserContext struct {
	Role          string   `json:"role"`
	Goals         []string `json:"goals"`
	ContractTypes []string `json:"contractTypes"`
	RiskTolerance string   `json:"riskTolerance"`
}

// Status tells whether the provider output parsed cleanly.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Outcome is what Analyze returns when the provider answered.
type Outcome struct {
	Result    AnalysisResult
	Status    Status
	Model     string
	Truncated bool
}

// Record is a saved analysis, owned by the user who created it.
type Record struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	OrgID          string         `json:"orgId,omitempty"`
	SourceTitle    string         `json:"sourceTitle"`
	DocFingerprint string         `json:"docFingerprint,omitempty"`
	Result         AnalysisResult `json:"analysis"`
	Model          string         `json:"model"`
	PromptVersion  string         `json:"promptVersion"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
