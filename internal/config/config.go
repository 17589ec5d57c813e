package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development production test"`
	LogLevel    slog.Level `env:"-"`
	RawLogLevel string     `env:"LOG_LEVEL" envDefault:"info"`

	// Model provider
	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"openai" validate:"oneof=openai anthropic venice ollama"`
	ModelName       string `env:"MODEL_NAME"`
	LLMBaseURL      string `env:"LLM_BASE_URL"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	VeniceAPIKey    string `env:"VENICE_API_KEY"`
	LLMRatePerMin   int    `env:"LLM_RATE_PER_MINUTE" envDefault:"0" validate:"gte=0"`

	// Data locations
	DataDir      string `env:"DATA_DIR" envDefault:"./data"`
	ArcsFile     string `env:"ARCS_FILE"`
	PromptsDir   string `env:"PROMPTS_DIR"`
	SessionStore string `env:"SESSION_STORE" envDefault:"file" validate:"oneof=file redis sqlite"`
	SessionsFile string `env:"SESSIONS_FILE"`
	RedisURL     string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath   string `env:"SQLITE_PATH"`

	// Generation loop
	MaxAttempts       int  `env:"STORY_MAX_ATTEMPTS" envDefault:"4" validate:"min=1,max=10"`
	RetryOnParseError bool `env:"STORY_RETRY_ON_PARSE_ERROR" envDefault:"true"`

	StoryMaxTokens     int     `env:"STORY_MAX_TOKENS" envDefault:"3000" validate:"gt=0"`
	StoryTemperature   float64 `env:"STORY_TEMPERATURE" envDefault:"0.3" validate:"gte=0,lte=2"`
	JudgeMaxTokens     int     `env:"JUDGE_MAX_TOKENS" envDefault:"3000" validate:"gt=0"`
	JudgeTemperature   float64 `env:"JUDGE_TEMPERATURE" envDefault:"0.3" validate:"gte=0,lte=2"`
	SummaryMaxTokens   int     `env:"SUMMARY_MAX_TOKENS" envDefault:"3000" validate:"gt=0"`
	SummaryTemperature float64 `env:"SUMMARY_TEMPERATURE" envDefault:"0.3" validate:"gte=0,lte=2"`

	OTelEnabled bool `env:"OTEL_ENABLED" envDefault:"false"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	cfg.applyDataDir()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDataDir fills file locations that were not set explicitly.
func (c *Config) applyDataDir() {
	if c.ArcsFile == "" {
		c.ArcsFile = filepath.Join(c.DataDir, "arcs.json")
	}
	if c.SessionsFile == "" {
		c.SessionsFile = filepath.Join(c.DataDir, "sessions.json")
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "sessions.db")
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "venice":
		return c.VeniceAPIKey
	case "ollama":
		return ""
	default:
		return c.OpenAIAPIKey
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
