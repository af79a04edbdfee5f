package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoAndErrorFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("extract.complete", map[string]any{"tier": "primary", "pages": 2})
	Error("llm.failed", map[string]any{"err": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0].ContextMap()
	if first["tier"] != "primary" {
		t.Fatalf("unexpected tier: %v", first["tier"])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[1].Level)
	}
	if got := entries[1].ContextMap()["err"]; got != "boom" {
		t.Fatalf("expected err=boom, got %v", got)
	}
}

func TestSetLoggerNilUsesNop(t *testing.T) {
	restore := SetLogger(nil)
	defer restore()
	Warn("ignored", nil)
}
