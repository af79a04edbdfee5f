package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps plans in memory for local development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[string]UserPlan
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string]UserPlan)}
}

func (s *MemoryStore) GetPlan(ctx context.Context, userID string) (UserPlan, error) {
	if err := ctx.Err(); err != nil {
		return UserPlan{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[userID]
	if !ok {
		return UserPlan{}, ErrPlanNotFound
	}
	return p, nil
}

func (s *MemoryStore) SetPlan(ctx context.Context, plan UserPlan) (UserPlan, error) {
	if err := ctx.Err(); err != nil {
		return UserPlan{}, err
	}
	plan.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.UserID] = plan
	return plan, nil
}
