package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// BlockThreshold is the minimum confidence at which a link is blocked.
	BlockThreshold float64 `koanf:"block_threshold" validate:"gte=0,lte=1"`

	// CacheSize bounds the verdict cache. Zero disables caching entirely.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// HistorySize bounds the in-memory history of blocked verdicts.
	HistorySize int `koanf:"history_size" validate:"required,gte=1"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// PollInterval is how often the recent log is rescanned.
	PollInterval time.Duration `koanf:"poll_interval" validate:"required,gt=0"`

	// QueueSize bounds each dispatcher subscriber queue.
	QueueSize int `koanf:"queue_size" validate:"required,gte=1"`

	// RecentFile is the desktop recently-used log the watcher tails.
	RecentFile string `koanf:"recent_file" validate:"required"`

	// RulesFile optionally points at a signature rule file in json, yaml or
	// toml format. Empty means the built-in signature set is used.
	RulesFile string `koanf:"rules_file" validate:"omitempty,rule_file"`

	// ShutdownTimeout bounds the graceful drain of in-flight events on exit.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,gt=0"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// link guard daemon. The recent-log path follows the freedesktop convention
// of a per-user recently-used.xbel file.
var DEFAULT_APP_CONFIG = AppConfig{
	BlockThreshold:  0.6,
	CacheSize:       1000,
	Env:             "prod",
	HistorySize:     200,
	LogLevel:        "info",
	PollInterval:    time.Second,
	QueueSize:       128,
	RecentFile:      defaultRecentPath(),
	RulesFile:       "",
	ShutdownTimeout: 10 * time.Second,
}

// defaultRecentPath resolves the per-user recently-used log location. An
// unresolvable home directory yields an empty path, which validation reports
// so the operator must set LINKFENCE_RECENT_FILE explicitly.
func defaultRecentPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "recently-used.xbel")
}

// validRuleFile validates that a rules file path carries one of the
// supported extensions. Existence is checked later by the rules loader,
// which produces a more useful error.
func validRuleFile(fl validator.FieldLevel) bool {
	switch strings.ToLower(filepath.Ext(fl.Field().String())) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// envLoader loads environment variables with the prefix "LINKFENCE_",
// lowercasing keys and trimming values. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.ProviderWithValue("LINKFENCE_", ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, "LINKFENCE_"))
		return key, strings.TrimSpace(value)
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf
// instance using the structs provider and the DEFAULT_APP_CONFIG struct.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "rule_file" validation tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("rule_file", validRuleFile)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
