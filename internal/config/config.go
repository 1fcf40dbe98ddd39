package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project file read from the documentation root.
const FileName = ".docbuild.yaml"

type Config struct {
	// Validation
	SummaryFile      string   `yaml:"summary" validate:"required"`
	Ignore           []string `yaml:"ignore"`
	MaxPageBytes     int64    `yaml:"max_page_bytes" validate:"gte=0"`
	MaxRecoveryDepth int      `yaml:"max_recovery_depth" validate:"gte=1,lte=64"`
	CheckAssets      bool     `yaml:"check_assets"`
	ParseAssets      bool     `yaml:"parse_assets"`

	// Rendering
	Docx bool `yaml:"docx"`

	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=text json"` // empty: text for commands, json for serve

	// Serve
	Port   string `yaml:"port" validate:"required,numeric"`
	APIKey string `yaml:"-"`

	// Build queue
	WorkerCount  int           `yaml:"worker_count" validate:"gte=1"`
	MaxQueueSize int           `yaml:"max_queue_size" validate:"gte=1"`
	JobTTL       time.Duration `yaml:"job_ttl" validate:"gt=0"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		SummaryFile:      "SUMMARY.md",
		Ignore:           []string{"node_modules", "_book"},
		MaxPageBytes:     10 << 20, // 10MB
		MaxRecoveryDepth: 8,
		CheckAssets:      true,
		ParseAssets:      false,
		LogLevel:         "info",
		Port:             "8090",
		WorkerCount:      2,
		MaxQueueSize:     16,
		JobTTL:           1 * time.Hour,
	}
}

// Load builds the configuration for the documentation root: defaults, then
// root/.docbuild.yaml if present, then DOCBUILD_* environment variables.
// An empty root skips the project file.
func Load(root string) (Config, error) {
	cfg := Default()

	if root != "" {
		data, err := os.ReadFile(filepath.Join(root, FileName))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", FileName, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read %s: %w", FileName, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.SummaryFile = envOr("DOCBUILD_SUMMARY", c.SummaryFile)
	if v := os.Getenv("DOCBUILD_IGNORE"); v != "" {
		c.Ignore = splitList(v)
	}
	c.MaxPageBytes = envInt64("DOCBUILD_MAX_PAGE_BYTES", c.MaxPageBytes)
	c.MaxRecoveryDepth = envInt("DOCBUILD_MAX_RECOVERY_DEPTH", c.MaxRecoveryDepth)
	c.CheckAssets = envBool("DOCBUILD_CHECK_ASSETS", c.CheckAssets)
	c.ParseAssets = envBool("DOCBUILD_PARSE_ASSETS", c.ParseAssets)
	c.Docx = envBool("DOCBUILD_DOCX", c.Docx)

	c.LogLevel = strings.ToLower(envOr("DOCBUILD_LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(envOr("DOCBUILD_LOG_FORMAT", c.LogFormat))

	c.Port = envOr("PORT", c.Port)
	c.Port = envOr("DOCBUILD_PORT", c.Port)
	c.APIKey = envOr("DOCBUILD_API_KEY", c.APIKey)

	c.WorkerCount = envInt("DOCBUILD_WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("DOCBUILD_MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.JobTTL = envDuration("DOCBUILD_JOB_TTL", c.JobTTL)
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Level maps LogLevel to a slog level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
