package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"lexguard-backend/internal/analyses"
	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/telemetry"
	"lexguard-backend/internal/shared/util"
	"lexguard-backend/internal/usage"
)

const (
	chatTemperature = 0.4
	maxMessageRunes = 4000
	maxTitleRunes   = 80
	emptyReply      = "I'm sorry, I couldn't come up with an answer. Please try rephrasing your question."
)

// AnalysisLookup resolves an analysis owned by the caller.
type AnalysisLookup interface {
	Get(ctx context.Context, userID, id string) (analyses.Record, error)
}

// Authorizer is the plan gate.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, capability usage.Capability) (usage.Decision, error)
}

// Service runs chat turns. Two concurrent turns on the same thread may both
// read history before either appends; each pair is still written atomically.
type Service struct {
	Store          Store
	Analyses       AnalysisLookup
	Gate           Authorizer
	LLM            llm.Client
	GroundedWindow int
	GeneralWindow  int
	Now            func() time.Time
}

// Send authorizes, builds the bounded context, calls the provider once and
// persists the user message together with the reply. Nothing is written when
// any step before persistence fails.
func (s *Service) Send(ctx context.Context, turn Turn) (Reply, error) {
	message := strings.TrimSpace(turn.Message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		return Reply{}, ErrMessageTooLong
	}

	mode, capability, window := ModeGeneral, usage.CapabilityChat, s.window(ModeGeneral)
	if turn.AnalysisID != "" {
		mode, capability, window = ModeGrounded, usage.CapabilityGroundedChat, s.window(ModeGrounded)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "chat.Send")
	defer span.End()
	span.SetAttributes(attribute.String("chat.mode", string(mode)))

	decision, err := s.Gate.Authorize(ctx, turn.UserID, capability)
	if err != nil {
		return Reply{}, err
	}
	if !decision.Allowed {
		metrics.ObserveGateDenial(string(decision.Reason))
		metrics.ObserveChatTurn(string(mode), "denied")
		return Reply{}, &usage.DeniedError{Capability: capability, Reason: decision.Reason}
	}

	var digest *AnalysisDigest
	if mode == ModeGrounded {
		rec, err := s.Analyses.Get(ctx, turn.UserID, turn.AnalysisID)
		if err != nil {
			if errors.Is(err, analyses.ErrNotFound) {
				return Reply{}, ErrAnalysisNotFound
			}
			return Reply{}, err
		}
		digest = DigestFromRecord(rec)
	}

	now := s.now()
	thread, create, history, err := s.resolveThread(ctx, turn, message, window, now)
	if err != nil {
		return Reply{}, err
	}
	span.SetAttributes(attribute.String("chat.thread_id", thread.ID), attribute.Int("chat.history", len(history)))

	completion, err := s.LLM.Complete(ctx, llm.Request{
		Messages:    BuildContext(mode, digest, history, message, window),
		Temperature: chatTemperature,
	})
	if err != nil {
		span.RecordError(err)
		metrics.ObserveChatTurn(string(mode), "provider_error")
		return Reply{}, err
	}
	reply := strings.TrimSpace(completion.Content)
	if reply == "" {
		reply = emptyReply
	}

	err = s.Store.AppendPair(ctx, PairWrite{
		Thread:    thread,
		Create:    create,
		MarkSaved: turn.Save,
		User: Message{
			ID:        uuid.NewString(),
			ThreadID:  thread.ID,
			Role:      llm.RoleUser,
			Content:   message,
			CreatedAt: now,
		},
		Assistant: Message{
			ID:       uuid.NewString(),
			ThreadID: thread.ID,
			Role:     llm.RoleAssistant,
			Content:  reply,
			// Strictly after the user message.
			CreatedAt: now.Add(time.Millisecond),
		},
	})
	if err != nil {
		metrics.ObserveChatTurn(string(mode), "store_error")
		return Reply{}, err
	}

	metrics.ObserveChatTurn(string(mode), "ok")
	return Reply{ThreadID: thread.ID, Reply: reply, Mode: mode, Model: completion.Model}, nil
}

// resolveThread loads an existing thread with its recent history, or mints a
// new one. A supplied thread must belong to the caller and to the same analysis.
func (s *Service) resolveThread(ctx context.Context, turn Turn, message string, window int, now time.Time) (Thread, bool, []Message, error) {
	if turn.ThreadID == "" {
		return Thread{
			ID:         uuid.NewString(),
			UserID:     turn.UserID,
			AnalysisID: turn.AnalysisID,
			Title:      deriveTitle(message),
			IsSaved:    turn.Save,
			CreatedAt:  now,
		}, true, nil, nil
	}

	thread, err := s.Store.GetThread(ctx, turn.UserID, turn.ThreadID)
	if err != nil {
		return Thread{}, false, nil, err
	}
	if thread.AnalysisID != turn.AnalysisID {
		return Thread{}, false, nil, ErrThreadNotFound
	}

	recent, err := s.Store.RecentMessages(ctx, thread.ID, window)
	if err != nil {
		return Thread{}, false, nil, err
	}
	history := make([]Message, len(recent))
	for i, m := range recent {
		history[len(recent)-1-i] = m
	}
	return thread, false, history, nil
}

// Threads lists the caller's threads newest first.
func (s *Service) Threads(ctx context.Context, userID string) ([]Thread, error) {
	return s.Store.ListThreads(ctx, userID, 50)
}

// Messages returns a thread's messages in chronological order.
func (s *Service) Messages(ctx context.Context, userID, threadID string) (Thread, []Message, error) {
	thread, err := s.Store.GetThread(ctx, userID, threadID)
	if err != nil {
		return Thread{}, nil, err
	}
	msgs, err := s.Store.Messages(ctx, thread.ID)
	if err != nil {
		return Thread{}, nil, err
	}
	return thread, msgs, nil
}

// Save marks a thread as kept, optionally renaming it.
func (s *Service) Save(ctx context.Context, userID, threadID, title string) (Thread, error) {
	title, _ = util.Truncate(strings.TrimSpace(title), maxTitleRunes)
	return s.Store.SaveThread(ctx, userID, threadID, title)
}

// Delete removes a thread and its messages.
func (s *Service) Delete(ctx context.Context, userID, threadID string) error {
	return s.Store.DeleteThread(ctx, userID, threadID)
}

func (s *Service) window(mode Mode) int {
	if mode == ModeGrounded {
		if s.GroundedWindow > 0 {
			return s.GroundedWindow
		}
		return DefaultGroundedWindow
	}
	if s.GeneralWindow > 0 {
		return s.GeneralWindow
	}
	return DefaultGeneralWindow
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func deriveTitle(message string) string {
	line := strings.TrimSpace(strings.SplitN(message, "\n", 2)[0])
	title, truncated := util.Truncate(line, maxTitleRunes)
	if truncated {
		title = strings.TrimSpace(title) + "..."
	}
	if title == "" {
		return "New conversation"
	}
	return title
}
