// Package config loads the service configuration from config/<ENV>.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the autoeval configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	OCR        OCRConfig        `yaml:"ocr"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Comparator ComparatorConfig `yaml:"comparator"`
	Cache      CacheConfig      `yaml:"cache"`
	Scoring    ScoringConfig    `yaml:"scoring"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int64 `yaml:"max_upload_mb"`
}

// StorageConfig holds temporary artifact settings.
type StorageConfig struct {
	TempDir string `yaml:"temp_dir"` // default: $TMPDIR/autoeval
}

// OCR engines.
const (
	OCREngineTesseract = "tesseract"
	OCREngineOCRSpace  = "ocrspace"
	OCREngineVision    = "vision"
)

// OCRConfig selects and configures the text extraction engine for images.
type OCRConfig struct {
	Engine      string          `yaml:"engine"` // tesseract, ocrspace, vision (default: tesseract)
	PDFMaxPages int             `yaml:"pdf_max_pages"`
	Tesseract   TesseractConfig `yaml:"tesseract"`
	OCRSpace    OCRSpaceConfig  `yaml:"ocrspace"`
	Vision      VisionConfig    `yaml:"vision"`
}

// TesseractConfig holds local OCR settings.
type TesseractConfig struct {
	Languages []string `yaml:"languages"`
}

// OCRSpaceConfig holds ocr.space API settings.
type OCRSpaceConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Engine     int    `yaml:"engine"` // 1, 2 or 3
	Language   string `yaml:"language"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// VisionConfig holds vision-model OCR settings.
type VisionConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Prompt    string `yaml:"prompt"`
	MaxTokens int    `yaml:"max_tokens"`
}

// EmbeddingConfig holds the sentence-embedding provider settings.
type EmbeddingConfig struct {
	Provider   string       `yaml:"provider"` // label for metrics and budget keys
	APIKey     string       `yaml:"api_key"`
	BaseURL    string       `yaml:"base_url"`
	Model      string       `yaml:"model"`
	Dimensions int          `yaml:"dimensions"`
	Budget     BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ComparatorConfig locates the siamese comparator weights.
type ComparatorConfig struct {
	WeightsPath string `yaml:"weights_path"`
}

// CacheConfig holds the optional Redis/Valkey connection used for the embedding cache
// and persisted budget counters.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 keeps entries forever
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ScoringConfig holds pipeline limits.
type ScoringConfig struct {
	MaxMarks float64 `yaml:"max_marks"` // 0 = no ceiling
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 10
	}
	if c.OCR.Engine == "" {
		c.OCR.Engine = OCREngineTesseract
	}
	if c.OCR.PDFMaxPages <= 0 {
		c.OCR.PDFMaxPages = 50
	}
	if c.OCR.OCRSpace.TimeoutSec <= 0 {
		c.OCR.OCRSpace.TimeoutSec = 60
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.OCR.Engine {
	case OCREngineTesseract:
	case OCREngineOCRSpace:
		if c.OCR.OCRSpace.APIKey == "" {
			return fmt.Errorf("ocr.ocrspace.api_key is required for the ocrspace engine")
		}
	case OCREngineVision:
		if c.OCR.Vision.Model == "" {
			return fmt.Errorf("ocr.vision.model is required for the vision engine")
		}
	default:
		return fmt.Errorf("ocr.engine must be one of tesseract, ocrspace, vision, got %q", c.OCR.Engine)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	if c.Comparator.WeightsPath == "" {
		return fmt.Errorf("comparator.weights_path is required")
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Scoring.MaxMarks < 0 {
		return fmt.Errorf("scoring.max_marks must be non-negative, got %v", c.Scoring.MaxMarks)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.HTTP.MaxUploadMB << 20
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
