package analyses

import "context"

// Repo defines persistence operations for saved analyses. Reads and deletes
// are scoped to the owner; a record owned by someone else is ErrNotFound.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, userID, id string) (Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
	Delete(ctx context.Context, userID, id string) error
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
