package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports liveness plus the state of optional dependencies.
type Service struct {
	DB          Pinger
	OCREnabled  bool
	PingTimeout time.Duration
}

// NewService constructs a health service. db may be nil when running on
// in-memory stores.
func NewService(db Pinger, ocrEnabled bool) *Service {
	return &Service{DB: db, OCREnabled: ocrEnabled, PingTimeout: 2 * time.Second}
}

// Status returns the health payload and whether every configured dependency
// is reachable.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true, "ocr": s.OCREnabled}
	if s.DB == nil {
		out["database"] = "memory"
		return out, true
	}
	timeout := s.PingTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		out["ok"] = false
		out["database"] = "unreachable"
		return out, false
	}
	out["database"] = "ok"
	return out, true
}
