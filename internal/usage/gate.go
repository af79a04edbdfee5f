package usage

import (
	"context"
	"errors"
)

// PlanStore reads and writes plan records.
type PlanStore interface {
	GetPlan(ctx context.Context, userID string) (UserPlan, error)
	SetPlan(ctx context.Context, plan UserPlan) (UserPlan, error)
}

// requirements lists the minimum plan per capability.
var requirements = map[Capability]Plan{
	CapabilityChat:         PlanPremium,
	CapabilityGroundedChat: PlanPremium,
}

// Gate decides whether a user may invoke a paid capability. It has no side
// effects and fails closed.
type Gate struct {
	Store PlanStore
}

// NewGate constructs a Gate.
func NewGate(store PlanStore) *Gate {
	return &Gate{Store: store}
}

// Authorize returns a denial for a missing plan record or a plan below the
// capability's requirement. Other store failures are returned as errors.
func (g *Gate) Authorize(ctx context.Context, userID string, capability Capability) (Decision, error) {
	if userID == "" {
		return Decision{Reason: ReasonPlanMissing}, nil
	}
	plan, err := g.Store.GetPlan(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return Decision{Reason: ReasonPlanMissing}, nil
		}
		return Decision{}, err
	}
	if !validPlan(plan.Plan) {
		return Decision{Reason: ReasonPlanMissing}, nil
	}

	required, ok := requirements[capability]
	if !ok {
		// Unknown capabilities need the highest tier.
		required = PlanPremium
	}
	if required == PlanPremium && plan.Plan != PlanPremium {
		return Decision{Reason: ReasonUpgradeRequired}, nil
	}
	return Decision{Allowed: true}, nil
}

// Require is Authorize folded into a single error: nil when allowed,
// *DeniedError when refused.
func (g *Gate) Require(ctx context.Context, userID string, capability Capability) error {
	d, err := g.Authorize(ctx, userID, capability)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &DeniedError{Capability: capability, Reason: d.Reason}
	}
	return nil
}
