package usage

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore reads plans from the user_plans table.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed plan store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) GetPlan(ctx context.Context, userID string) (UserPlan, error) {
	const query = `
SELECT user_id, plan, free_quota, used_quota, updated_at
FROM user_plans
WHERE user_id = $1`

	var p UserPlan
	var plan string
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &plan, &p.FreeQuota, &p.UsedQuota, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserPlan{}, ErrPlanNotFound
		}
		return UserPlan{}, err
	}
	p.Plan = Plan(plan)
	return p, nil
}

// SetPlan upserts the plan tier, keeping quota counters of existing rows.
func (s *PGStore) SetPlan(ctx context.Context, plan UserPlan) (UserPlan, error) {
	const query = `
INSERT INTO user_plans (user_id, plan, free_quota, used_quota, updated_at)
VALUES ($1, $2, $3, 0, now())
ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, updated_at = now()
RETURNING user_id, plan, free_quota, used_quota, updated_at`

	var out UserPlan
	var tier string
	if err := s.DB.QueryRowContext(ctx, query, plan.UserID, string(plan.Plan), plan.FreeQuota).
		Scan(&out.UserID, &tier, &out.FreeQuota, &out.UsedQuota, &out.UpdatedAt); err != nil {
		return UserPlan{}, err
	}
	out.Plan = Plan(tier)
	return out, nil
}
