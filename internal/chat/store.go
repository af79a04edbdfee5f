package chat

import "context"

// PairWrite is one turn's persistence: an optional new thread plus the
// user message and assistant reply, written together or not at all.
type PairWrite struct {
	Thread    Thread
	Create    bool
	MarkSaved bool
	User      Message
	Assistant Message
}

// Store persists threads and messages. Thread lookups are owner-scoped;
// a thread owned by someone else is ErrThreadNotFound.
type Store interface {
	GetThread(ctx context.Context, userID, threadID string) (Thread, error)
	// RecentMessages returns up to limit messages, newest first.
	RecentMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
	// Messages returns every message of a thread in chronological order.
	Messages(ctx context.Context, threadID string) ([]Message, error)
	AppendPair(ctx context.Context, w PairWrite) error
	ListThreads(ctx context.Context, userID string, limit int) ([]Thread, error)
	SaveThread(ctx context.Context, userID, threadID, title string) (Thread, error)
	DeleteThread(ctx context.Context, userID, threadID string) error
}
