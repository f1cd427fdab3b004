package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/boardwatch/filings-cli/internal/classify"
	"github.com/boardwatch/filings-cli/internal/linking"
	"github.com/boardwatch/filings-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Classifier classify.Lists   `yaml:"classifier" mapstructure:"classifier"`
	Linking    linking.Config   `yaml:"linking" mapstructure:"linking"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the document store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractionConfig configures the extraction engine.
type ExtractionConfig struct {
	MaxChunkChars      int `yaml:"max_chunk_chars" mapstructure:"max_chunk_chars"`
	ChunkOverlap       int `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	TokensPerMinute    int `yaml:"tokens_per_minute" mapstructure:"tokens_per_minute"`
	RateLimitPauseSecs int `yaml:"rate_limit_pause_secs" mapstructure:"rate_limit_pause_secs"`
}

// RateLimitPause returns the orchestrator's fallback pause as a duration.
func (c ExtractionConfig) RateLimitPause() time.Duration {
	return time.Duration(c.RateLimitPauseSecs) * time.Second
}

// OCRConfig configures the OCR stage.
type OCRConfig struct {
	OcrMyPDFPath  string `yaml:"ocrmypdf_path" mapstructure:"ocrmypdf_path"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	Jobs          int    `yaml:"jobs" mapstructure:"jobs"`
	Workers       int    `yaml:"workers" mapstructure:"workers"`
	WorkDir       string `yaml:"work_dir" mapstructure:"work_dir"`
}

// RetryConfig configures transient-error retries for backend calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// ToRetryConfig converts to the resilience package's representation.
func (c RetryConfig) ToRetryConfig() resilience.RetryConfig {
	return resilience.FromRetryConfig(
		c.MaxAttempts, c.InitialBackoffMs, c.MaxBackoffMs,
		c.Multiplier, c.JitterFraction,
	)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. The classifier lists
// have no defaults here; empty lists fall back to classify.DefaultLists so
// a partial yaml override never hollows out a category.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FILINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "filings.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("extraction.max_chunk_chars", 70000)
	v.SetDefault("extraction.chunk_overlap", 500)
	v.SetDefault("extraction.tokens_per_minute", 80000)
	v.SetDefault("extraction.rate_limit_pause_secs", 60)
	v.SetDefault("ocr.ocrmypdf_path", "ocrmypdf")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.jobs", 2)
	v.SetDefault("ocr.workers", 2)
	v.SetDefault("ocr.work_dir", "")
	v.SetDefault("linking.prefer_amended", true)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for a command mode. "process" covers
// the commands that call the extraction backend; "report" covers the
// read-only commands.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			missing = append(missing, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required for the postgres driver")
		}
	default:
		missing = append(missing, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "process":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Extraction.MaxChunkChars <= 0 {
			missing = append(missing, "extraction.max_chunk_chars must be > 0")
		}
		if c.Extraction.TokensPerMinute <= 0 {
			missing = append(missing, "extraction.tokens_per_minute must be > 0")
		}
		if c.OCR.Workers < 1 || c.OCR.Workers > 16 {
			missing = append(missing, "ocr.workers must be between 1 and 16")
		}
	case "report":
		// Store checks above are sufficient.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
