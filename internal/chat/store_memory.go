package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps threads in memory and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	threads  map[string]Thread
	messages map[string][]Message
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:  make(map[string]Thread),
		messages: make(map[string][]Message),
	}
}

func (s *MemoryStore) GetThread(ctx context.Context, userID, threadID string) (Thread, error) {
	if err := ctx.Err(); err != nil {
		return Thread{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok || t.UserID != userID {
		return Thread{}, ErrThreadNotFound
	}
	return t, nil
}

func (s *MemoryStore) RecentMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[threadID]
	if limit < 0 {
		limit = 0
	}
	if limit > len(msgs) {
		limit = len(msgs)
	}
	out := make([]Message, 0, limit)
	for i := len(msgs) - 1; i >= len(msgs)-limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (s *MemoryStore) Messages(ctx context.Context, threadID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message{}, s.messages[threadID]...), nil
}

func (s *MemoryStore) AppendPair(ctx context.Context, w PairWrite) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[w.Thread.ID]
	if w.Create || !ok {
		t = w.Thread
	}
	if w.MarkSaved {
		t.IsSaved = true
	}
	s.threads[t.ID] = t
	s.messages[t.ID] = append(s.messages[t.ID], w.User, w.Assistant)
	return nil
}

func (s *MemoryStore) ListThreads(ctx context.Context, userID string, limit int) ([]Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	s.mu.RLock()
	out := []Thread{}
	for _, t := range s.threads {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveThread(ctx context.Context, userID, threadID, title string) (Thread, error) {
	if err := ctx.Err(); err != nil {
		return Thread{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok || t.UserID != userID {
		return Thread{}, ErrThreadNotFound
	}
	t.IsSaved = true
	if title = strings.TrimSpace(title); title != "" {
		t.Title = title
	}
	s.threads[threadID] = t
	return t, nil
}

func (s *MemoryStore) DeleteThread(ctx context.Context, userID, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok || t.UserID != userID {
		return ErrThreadNotFound
	}
	delete(s.threads, threadID)
	delete(s.messages, threadID)
	return nil
}

// DeleteByAnalysis drops every thread bound to an analysis, mirroring the
// foreign key cascade of the Postgres schema.
func (s *MemoryStore) DeleteByAnalysis(ctx context.Context, analysisID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.threads {
		if t.AnalysisID == analysisID {
			delete(s.threads, id)
			delete(s.messages, id)
		}
	}
	return nil
}
