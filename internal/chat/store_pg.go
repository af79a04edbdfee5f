package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexguard-backend/internal/llm"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

const threadColumns = `id, user_id, analysis_id, title, is_saved, created_at`

func (s *PGStore) GetThread(ctx context.Context, userID, threadID string) (Thread, error) {
	if _, err := uuid.Parse(threadID); err != nil {
		return Thread{}, ErrThreadNotFound
	}
	row := s.DB.QueryRowContext(ctx, `
SELECT `+threadColumns+`
FROM chat_threads
WHERE id = $1 AND user_id = $2`, threadID, userID)
	t, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Thread{}, ErrThreadNotFound
		}
		return Thread{}, err
	}
	return t, nil
}

func (s *PGStore) RecentMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	return s.queryMessages(ctx, `
SELECT id, thread_id, role, content, created_at
FROM chat_messages
WHERE thread_id = $1
ORDER BY created_at DESC
LIMIT $2`, threadID, limit)
}

func (s *PGStore) Messages(ctx context.Context, threadID string) ([]Message, error) {
	return s.queryMessages(ctx, `
SELECT id, thread_id, role, content, created_at
FROM chat_messages
WHERE thread_id = $1
ORDER BY created_at ASC`, threadID)
}

func (s *PGStore) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.ThreadID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = llm.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendPair writes the thread (when new) and both messages in one transaction.
func (s *PGStore) AppendPair(ctx context.Context, w PairWrite) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if w.Create {
		_, err = tx.ExecContext(ctx, `
INSERT INTO chat_threads (id, user_id, analysis_id, title, is_saved, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			w.Thread.ID, w.Thread.UserID, nullUUID(w.Thread.AnalysisID), w.Thread.Title, w.MarkSaved, w.Thread.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert thread: %w", err)
		}
	} else if w.MarkSaved {
		_, err = tx.ExecContext(ctx, `UPDATE chat_threads SET is_saved = TRUE WHERE id = $1`, w.Thread.ID)
		if err != nil {
			return fmt.Errorf("mark thread saved: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO chat_messages (id, thread_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)`,
		w.User.ID, w.Thread.ID, string(w.User.Role), w.User.Content, w.User.CreatedAt,
		w.Assistant.ID, w.Thread.ID, string(w.Assistant.Role), w.Assistant.Content, w.Assistant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert messages: %w", err)
	}
	return tx.Commit()
}

func (s *PGStore) ListThreads(ctx context.Context, userID string, limit int) ([]Thread, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+threadColumns+`
FROM chat_threads
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Thread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveThread(ctx context.Context, userID, threadID, title string) (Thread, error) {
	if _, err := uuid.Parse(threadID); err != nil {
		return Thread{}, ErrThreadNotFound
	}
	row := s.DB.QueryRowContext(ctx, `
UPDATE chat_threads
SET is_saved = TRUE,
    title = COALESCE(NULLIF($3, ''), title)
WHERE id = $1 AND user_id = $2
RETURNING `+threadColumns, threadID, userID, title)
	t, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Thread{}, ErrThreadNotFound
		}
		return Thread{}, err
	}
	return t, nil
}

// DeleteThread removes a thread; its messages cascade.
func (s *PGStore) DeleteThread(ctx context.Context, userID, threadID string) error {
	if _, err := uuid.Parse(threadID); err != nil {
		return ErrThreadNotFound
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_threads WHERE id = $1 AND user_id = $2`, threadID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrThreadNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (Thread, error) {
	var t Thread
	var analysisID sql.NullString
	if err := row.Scan(&t.ID, &t.UserID, &analysisID, &t.Title, &t.IsSaved, &t.CreatedAt); err != nil {
		return Thread{}, err
	}
	if analysisID.Valid {
		t.AnalysisID = analysisID.String
	}
	return t, nil
}

func nullUUID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}
