package usage

import "time"

// Plan is a billing tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// UserPlan is a user's billing snapshot. The core reads it but never
// changes quota counters.
type UserPlan struct {
	UserID    string    `json:"userId"`
	Plan      Plan      `json:"plan"`
	FreeQuota int       `json:"freeQuota"`
	UsedQuota int       `json:"usedQuota"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Capability is a provider-backed feature guarded by the gate.
type Capability string

const (
	CapabilityChat         Capability = "chat"
	CapabilityGroundedChat Capability = "grounded_chat"
)

// Reason explains a denial.
type Reason string

const (
	ReasonPlanMissing     Reason = "plan_missing"
	ReasonUpgradeRequired Reason = "upgrade_required"
)

// Decision is the gate's answer.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

func validPlan(p Plan) bool {
	return p == PlanFree || p == PlanPremium
}
