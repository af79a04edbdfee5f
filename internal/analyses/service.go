package analyses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexguard-backend/internal/shared/telemetry"
	"lexguard-backend/internal/shared/util"
)

// Service contains business logic for saved analyses.
type Service struct {
	Repo          Repo
	PromptVersion string
	MaxRedFlags   int
	// OnDelete runs after a record is removed, for stores without FK cascades.
	OnDelete func(ctx context.Context, analysisID string) error
	Now      func() time.Time
}

// SaveInput is a client-approved analysis to persist.
type SaveInput struct {
	UserID         string
	OrgID          string
	SourceTitle    string
	DocFingerprint string
	// Text is only hashed into DocFingerprint when no fingerprint is given.
	Text   string
	Result AnalysisResult
	Model  string
}

// Save persists a new record. Results are normalized again since they come
// back from the client.
func (s *Service) Save(ctx context.Context, in SaveInput) (Record, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Record{}, errors.New("userID is required")
	}
	fingerprint := strings.TrimSpace(in.DocFingerprint)
	if fingerprint == "" {
		fingerprint = util.Fingerprint(in.Text)
	}
	title := strings.TrimSpace(in.SourceTitle)
	if title == "" {
		title = "Untitled document"
	}

	now := s.now()
	rec := Record{
		ID:             uuid.NewString(),
		UserID:         in.UserID,
		OrgID:          strings.TrimSpace(in.OrgID),
		SourceTitle:    title,
		DocFingerprint: fingerprint,
		Result:         Normalize(in.Result, s.MaxRedFlags),
		Model:          in.Model,
		PromptVersion:  s.PromptVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	telemetry.Info("analysis.saved", map[string]any{
		"analysis_id":  rec.ID,
		"user_id":      rec.UserID,
		"overall_risk": rec.Result.OverallRisk,
		"red_flags":    len(rec.Result.RedFlags),
	})
	return rec, nil
}

// Get returns the caller's record.
func (s *Service) Get(ctx context.Context, userID, id string) (Record, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns the caller's records newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes the caller's record.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if s.OnDelete != nil {
		if err := s.OnDelete(ctx, id); err != nil {
			telemetry.Warn("analysis.delete_cascade_failed", map[string]any{"analysis_id": id, "err": err})
		}
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
