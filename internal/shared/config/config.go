package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Load when no provider API key is configured.
var ErrMissingAPIKey = errors.New("LLM_API_KEY is required")

// Config holds application configuration.
type Config struct {
	Port            string         `yaml:"port"`
	Env             string         `yaml:"env"`
	DatabaseURL     string         `yaml:"database_url"`
	CORSAllowOrigin []string       `yaml:"cors_allow_origins"`
	LLM             LLMConfig      `yaml:"llm"`
	Extract         ExtractConfig  `yaml:"extract"`
	Analysis        AnalysisConfig `yaml:"analysis"`
	Chat            ChatConfig     `yaml:"chat"`
	RateLimit       RateLimit      `yaml:"rate_limit"`
}

// LLMConfig configures the chat-completions provider.
type LLMConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExtractConfig configures the PDF text extractor.
type ExtractConfig struct {
	MinTextLength  int   `yaml:"min_text_length"`
	OCREnabled     bool  `yaml:"ocr_enabled"`
	OCRMaxPages    int   `yaml:"ocr_max_pages"`
	OCRDPI         int   `yaml:"ocr_dpi"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// AnalysisConfig configures the analysis generator.
type AnalysisConfig struct {
	MaxRedFlags    int    `yaml:"max_red_flags"`
	MaxPromptChars int    `yaml:"max_prompt_chars"`
	PromptVersion  string `yaml:"prompt_version"`
}

// ChatConfig configures chat history windows.
type ChatConfig struct {
	GroundedHistory int `yaml:"grounded_history"`
	GeneralHistory  int `yaml:"general_history"`
}

// RateLimit configures the per-principal token buckets. The AI bucket covers
// extraction, analysis and chat.
type RateLimit struct {
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
	AIRPS   float64 `yaml:"ai_rps"`
	AIBurst int     `yaml:"ai_burst"`
}

// Defaults returns the configuration used when neither a config file nor env overrides are present.
func Defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
		Extract: ExtractConfig{
			MinTextLength:  50,
			OCREnabled:     true,
			OCRMaxPages:    20,
			OCRDPI:         200,
			MaxUploadBytes: 10 << 20,
		},
		Analysis: AnalysisConfig{
			MaxRedFlags:    10,
			MaxPromptChars: 100000,
			PromptVersion:  "contract-v1",
		},
		Chat: ChatConfig{
			GroundedHistory: 8,
			GeneralHistory:  15,
		},
		RateLimit: RateLimit{
			RPS:     5,
			Burst:   20,
			AIRPS:   0.5,
			AIBurst: 5,
		},
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and
// environment variables, which take precedence. A missing provider API key is
// a hard error.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and clamps invalid limits back to defaults.
func (c *Config) Validate() error {
	c.Env = NormalizeEnv(c.Env)
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required in production")
	}
	def := Defaults()
	if c.Extract.MinTextLength <= 0 {
		c.Extract.MinTextLength = def.Extract.MinTextLength
	}
	if c.Extract.OCRMaxPages <= 0 {
		c.Extract.OCRMaxPages = def.Extract.OCRMaxPages
	}
	if c.Extract.OCRDPI <= 0 {
		c.Extract.OCRDPI = def.Extract.OCRDPI
	}
	if c.Extract.MaxUploadBytes <= 0 {
		c.Extract.MaxUploadBytes = def.Extract.MaxUploadBytes
	}
	if c.Analysis.MaxRedFlags <= 0 {
		c.Analysis.MaxRedFlags = def.Analysis.MaxRedFlags
	}
	if c.Analysis.MaxPromptChars <= 0 {
		c.Analysis.MaxPromptChars = def.Analysis.MaxPromptChars
	}
	if c.Chat.GroundedHistory <= 0 {
		c.Chat.GroundedHistory = def.Chat.GroundedHistory
	}
	if c.Chat.GeneralHistory <= 0 {
		c.Chat.GeneralHistory = def.Chat.GeneralHistory
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		c.RateLimit.RPS, c.RateLimit.Burst = def.RateLimit.RPS, def.RateLimit.Burst
	}
	if c.RateLimit.AIRPS <= 0 || c.RateLimit.AIBurst <= 0 {
		c.RateLimit.AIRPS, c.RateLimit.AIBurst = def.RateLimit.AIRPS, def.RateLimit.AIBurst
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = def.LLM.Timeout
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}

	cfg.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", cfg.LLM.APIKey))
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	if secs := getEnvInt("LLM_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.LLM.Timeout = time.Duration(secs) * time.Second
	}

	cfg.Extract.MinTextLength = getEnvInt("MIN_TEXT_LENGTH", cfg.Extract.MinTextLength)
	cfg.Extract.OCREnabled = getEnvBool("OCR_ENABLED", cfg.Extract.OCREnabled)
	cfg.Extract.OCRMaxPages = getEnvInt("OCR_MAX_PAGES", cfg.Extract.OCRMaxPages)
	cfg.Extract.OCRDPI = getEnvInt("OCR_DPI", cfg.Extract.OCRDPI)

	cfg.Analysis.MaxRedFlags = getEnvInt("MAX_RED_FLAGS", cfg.Analysis.MaxRedFlags)
	cfg.Analysis.MaxPromptChars = getEnvInt("MAX_PROMPT_CHARS", cfg.Analysis.MaxPromptChars)
	cfg.Analysis.PromptVersion = getEnv("PROMPT_VERSION", cfg.Analysis.PromptVersion)

	cfg.Chat.GroundedHistory = getEnvInt("CHAT_HISTORY_GROUNDED", cfg.Chat.GroundedHistory)
	cfg.Chat.GeneralHistory = getEnvInt("CHAT_HISTORY_GENERAL", cfg.Chat.GeneralHistory)

	cfg.RateLimit.RPS = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.AIRPS = getEnvFloat("RATE_LIMIT_AI_RPS", cfg.RateLimit.AIRPS)
	cfg.RateLimit.AIBurst = getEnvInt("RATE_LIMIT_AI_BURST", cfg.RateLimit.AIBurst)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NormalizeEnv maps ENV aliases to dev, local, staging or production.
func NormalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev", "":
		return "dev"
	default:
		// Unrecognized names get production rules.
		return "production"
	}
}

// IsDevLike reports whether env permits in-memory fallbacks and dev routes.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
