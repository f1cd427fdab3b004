package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "filings.db", cfg.Store.SQLitePath)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, int64(4096), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 70000, cfg.Extraction.MaxChunkChars)
	assert.Equal(t, 500, cfg.Extraction.ChunkOverlap)
	assert.Equal(t, 80000, cfg.Extraction.TokensPerMinute)
	assert.Equal(t, time.Minute, cfg.Extraction.RateLimitPause())
	assert.Equal(t, "ocrmypdf", cfg.OCR.OcrMyPDFPath)
	assert.Equal(t, "pdftotext", cfg.OCR.PdfToTextPath)
	assert.Equal(t, 2, cfg.OCR.Workers)
	assert.True(t, cfg.Linking.PreferAmended)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Classifier lists default to empty here; classify.New falls back to
	// the built-in lists.
	assert.Empty(t, cfg.Classifier.ComplaintTypes)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/filings
linking:
  prefer_amended: false
ocr:
  workers: 4
log:
  level: debug
  format: console
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/filings", cfg.Store.DatabaseURL)
	assert.False(t, cfg.Linking.PreferAmended)
	assert.Equal(t, 4, cfg.OCR.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 70000, cfg.Extraction.MaxChunkChars)
}

func TestLoadClassifierListsFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
classifier:
  complaint_types:
    Complaint: 1
    Fourth Amended Complaint: 5
  settlement_types:
    - Settlement Agreement and Order
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Classifier.ComplaintTypes["Fourth Amended Complaint"])
	assert.Equal(t, []string{"Settlement Agreement and Order"}, cfg.Classifier.SettlementTypes)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FILINGS_STORE_DRIVER", "postgres")
	t.Setenv("FILINGS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("FILINGS_EXTRACTION_TOKENS_PER_MINUTE", "40000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 40000, cfg.Extraction.TokensPerMinute)
}

func validDefaults() *Config {
	return &Config{
		Store:      StoreConfig{Driver: "sqlite", SQLitePath: "filings.db"},
		Anthropic:  AnthropicConfig{Key: "sk-ant-key", Model: "claude-sonnet-4-5-20250929"},
		Extraction: ExtractionConfig{MaxChunkChars: 70000, TokensPerMinute: 80000},
		OCR:        OCRConfig{Workers: 2},
	}
}

func TestValidateProcess_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("process"))
}

func TestValidateProcess_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	err := cfg.Validate("process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.OCR.Workers = 0
	err := cfg.Validate("process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.workers must be between 1 and 16")

	cfg.OCR.Workers = 17
	err = cfg.Validate("process")
	require.Error(t, err)

	cfg.OCR.Workers = 16
	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestRetryConversion(t *testing.T) {
	rc := RetryConfig{
		MaxAttempts:      4,
		InitialBackoffMs: 250,
		MaxBackoffMs:     5000,
		Multiplier:       2.0,
		JitterFraction:   0.1,
	}.ToRetryConfig()

	assert.Equal(t, 4, rc.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, rc.InitialBackoff)
	assert.Equal(t, 5*time.Second, rc.MaxBackoff)
}
