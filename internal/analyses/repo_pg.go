package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, user_id, org_id, source_title, doc_fingerprint, result, model, prompt_version, created_at, updated_at
FROM analyses`

// Create inserts a new analysis record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO analyses (
	id, user_id, org_id, source_title, doc_fingerprint, result, overall_risk, model, prompt_version, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		nullString(rec.OrgID),
		rec.SourceTitle,
		nullString(rec.DocFingerprint),
		payload,
		string(rec.Result.OverallRisk),
		rec.Model,
		rec.PromptVersion,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

// Get returns the caller's analysis by ID.
func (r *PGRepo) Get(ctx context.Context, userID, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1 AND user_id = $2
LIMIT 1`, id, userID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListByUser lists analyses for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the caller's analysis; threads bound to it cascade.
func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var orgID sql.NullString
	var fingerprint sql.NullString
	var result []byte
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&orgID,
		&rec.SourceTitle,
		&fingerprint,
		&result,
		&rec.Model,
		&rec.PromptVersion,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	if orgID.Valid {
		rec.OrgID = orgID.String
	}
	if fingerprint.Valid {
		rec.DocFingerprint = fingerprint.String
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &rec.Result); err != nil {
			return Record{}, err
		}
	}
	rec.Result = Normalize(rec.Result, len(rec.Result.RedFlags))
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
