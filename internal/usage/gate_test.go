package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{ err error }

func (s brokenStore) GetPlan(context.Context, string) (UserPlan, error) { return UserPlan{}, s.err }
func (s brokenStore) SetPlan(context.Context, UserPlan) (UserPlan, error) {
	return UserPlan{}, s.err
}

func TestAuthorize(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.SetPlan(ctx, UserPlan{UserID: "free-user", Plan: PlanFree})
	require.NoError(t, err)
	_, err = store.SetPlan(ctx, UserPlan{UserID: "premium-user", Plan: PlanPremium})
	require.NoError(t, err)
	_, err = store.SetPlan(ctx, UserPlan{UserID: "odd-user", Plan: "enterprise-trial"})
	require.NoError(t, err)

	gate := NewGate(store)
	cases := []struct {
		user       string
		capability Capability
		want       Decision
	}{
		{"premium-user", CapabilityChat, Decision{Allowed: true}},
		{"premium-user", CapabilityGroundedChat, Decision{Allowed: true}},
		{"free-user", CapabilityChat, Decision{Reason: ReasonUpgradeRequired}},
		{"free-user", CapabilityGroundedChat, Decision{Reason: ReasonUpgradeRequired}},
		{"nobody", CapabilityChat, Decision{Reason: ReasonPlanMissing}},
		{"", CapabilityChat, Decision{Reason: ReasonPlanMissing}},
		{"odd-user", CapabilityChat, Decision{Reason: ReasonPlanMissing}},
		{"free-user", Capability("unknown"), Decision{Reason: ReasonUpgradeRequired}},
	}
	for _, tc := range cases {
		got, err := gate.Authorize(ctx, tc.user, tc.capability)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s/%s", tc.user, tc.capability)
	}
}

func TestAuthorizeSurfacesStoreFailure(t *testing.T) {
	gate := NewGate(brokenStore{err: errors.New("connection reset")})
	d, err := gate.Authorize(context.Background(), "u", CapabilityChat)
	assert.Error(t, err)
	assert.False(t, d.Allowed)
}

func TestRequireReturnsDeniedError(t *testing.T) {
	gate := NewGate(NewMemoryStore())
	err := gate.Require(context.Background(), "nobody", CapabilityGroundedChat)

	require.ErrorIs(t, err, ErrDenied)
	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, ReasonPlanMissing, denied.Reason)
	assert.Equal(t, CapabilityGroundedChat, denied.Capability)
}

func TestGateDoesNotMutatePlan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	before, err := store.SetPlan(ctx, UserPlan{UserID: "u", Plan: PlanPremium, FreeQuota: 3, UsedQuota: 1})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := NewGate(store).Authorize(ctx, "u", CapabilityChat)
		require.NoError(t, err)
	}
	after, err := store.GetPlan(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
