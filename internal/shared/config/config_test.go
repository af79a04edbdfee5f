package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extract.MinTextLength != 50 {
		t.Fatalf("expected min text length 50, got %d", cfg.Extract.MinTextLength)
	}
	if cfg.Extract.OCRMaxPages != 20 || cfg.Extract.OCRDPI != 200 {
		t.Fatalf("unexpected OCR defaults: %+v", cfg.Extract)
	}
	if cfg.Analysis.MaxRedFlags != 10 {
		t.Fatalf("expected max red flags 10, got %d", cfg.Analysis.MaxRedFlags)
	}
	if cfg.Chat.GroundedHistory != 8 || cfg.Chat.GeneralHistory != 15 {
		t.Fatalf("unexpected chat windows: %+v", cfg.Chat)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
port: "9090"
llm:
  api_key: from-file
  model: file-model
  timeout: 30s
extract:
  ocr_max_pages: 5
chat:
  general_history: 4
rate_limit:
  ai_burst: 2
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("OCR_DPI", "300")
	t.Setenv("RATE_LIMIT_AI_RPS", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.LLM.APIKey != "from-file" {
		t.Fatalf("expected api key from file, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "env-model" {
		t.Fatalf("expected env model override, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.LLM.Timeout)
	}
	if cfg.Extract.OCRMaxPages != 5 || cfg.Extract.OCRDPI != 300 {
		t.Fatalf("unexpected extract config: %+v", cfg.Extract)
	}
	if cfg.Chat.GeneralHistory != 4 || cfg.Chat.GroundedHistory != 8 {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
	if cfg.RateLimit.AIBurst != 2 || cfg.RateLimit.AIRPS != 0.25 || cfg.RateLimit.Burst != 20 {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
}

func TestValidateClampsInvalidLimits(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.APIKey = "k"
	cfg.Extract.OCRMaxPages = -1
	cfg.Chat.GroundedHistory = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Extract.OCRMaxPages != 20 || cfg.Chat.GroundedHistory != 8 {
		t.Fatalf("expected clamped defaults, got %+v %+v", cfg.Extract, cfg.Chat)
	}
}

func TestValidateRequiresDatabaseInProduction(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.APIKey = "k"
	cfg.Env = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestValidateTreatsUnknownEnvAsProduction(t *testing.T) {
	for _, env := range []string{"prod-eu", "Live", "qa"} {
		cfg := Defaults()
		cfg.LLM.APIKey = "k"
		cfg.Env = env
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected DATABASE_URL to be required", env)
		}
		if cfg.Env != "production" {
			t.Fatalf("%s: env = %q, want production", env, cfg.Env)
		}
		if IsDevLike(cfg.Env) {
			t.Fatalf("%s: must not allow dev fallbacks", env)
		}
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"":            "dev",
		" Dev ":       "dev",
		"development": "dev",
		"local":       "local",
		"STAGING":     "staging",
		"prod":        "production",
		"production":  "production",
		"sandbox":     "production",
	}
	for in, want := range cases {
		if got := NormalizeEnv(in); got != want {
			t.Fatalf("NormalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
