package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	// No env overrides
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("expected PollInterval=1s, got %v", cfg.PollInterval)
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("expected CacheSize=1000, got %d", cfg.CacheSize)
	}
	if cfg.HistorySize != 200 {
		t.Errorf("expected HistorySize=200, got %d", cfg.HistorySize)
	}
	if cfg.BlockThreshold != 0.6 {
		t.Errorf("expected BlockThreshold=0.6, got %v", cfg.BlockThreshold)
	}
	if cfg.QueueSize != 128 {
		t.Errorf("expected QueueSize=128, got %d", cfg.QueueSize)
	}
	if cfg.RulesFile != "" {
		t.Errorf("expected RulesFile to be empty by default, got %q", cfg.RulesFile)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected ShutdownTimeout=10s, got %v", cfg.ShutdownTimeout)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		want := filepath.Join(home, ".local", "share", "recently-used.xbel")
		if cfg.RecentFile != want {
			t.Errorf("expected RecentFile=%q, got %q", want, cfg.RecentFile)
		}
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("LINKFENCE_ENV", "dev")
	t.Setenv("LINKFENCE_LOG_LEVEL", "debug")
	t.Setenv("LINKFENCE_POLL_INTERVAL", "250ms")
	t.Setenv("LINKFENCE_RECENT_FILE", "/tmp/recently-used.xbel")
	t.Setenv("LINKFENCE_CACHE_SIZE", "0")
	t.Setenv("LINKFENCE_HISTORY_SIZE", "50")
	t.Setenv("LINKFENCE_BLOCK_THRESHOLD", "0.85")
	t.Setenv("LINKFENCE_RULES_FILE", "/etc/linkfence/rules.yaml")
	t.Setenv("LINKFENCE_QUEUE_SIZE", "64")
	t.Setenv("LINKFENCE_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("expected PollInterval=250ms, got %v", cfg.PollInterval)
	}
	if cfg.RecentFile != "/tmp/recently-used.xbel" {
		t.Errorf("expected RecentFile=/tmp/recently-used.xbel, got %q", cfg.RecentFile)
	}
	if cfg.CacheSize != 0 {
		t.Errorf("expected CacheSize=0, got %d", cfg.CacheSize)
	}
	if cfg.HistorySize != 50 {
		t.Errorf("expected HistorySize=50, got %d", cfg.HistorySize)
	}
	if cfg.BlockThreshold != 0.85 {
		t.Errorf("expected BlockThreshold=0.85, got %v", cfg.BlockThreshold)
	}
	if cfg.RulesFile != "/etc/linkfence/rules.yaml" {
		t.Errorf("expected RulesFile=/etc/linkfence/rules.yaml, got %q", cfg.RulesFile)
	}
	if cfg.QueueSize != 64 {
		t.Errorf("expected QueueSize=64, got %d", cfg.QueueSize)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected ShutdownTimeout=3s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("LINKFENCE_ENV", "staging")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid LINKFENCE_ENV, got nil")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LINKFENCE_LOG_LEVEL", "trace")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid LINKFENCE_LOG_LEVEL, got nil")
	}
}

func TestLoad_ThresholdOutOfRange(t *testing.T) {
	t.Setenv("LINKFENCE_BLOCK_THRESHOLD", "1.5")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for out-of-range LINKFENCE_BLOCK_THRESHOLD, got nil")
	}
}

func TestLoad_NegativeCacheSize(t *testing.T) {
	t.Setenv("LINKFENCE_CACHE_SIZE", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for negative LINKFENCE_CACHE_SIZE, got nil")
	}
}

func TestLoad_InvalidHistorySize(t *testing.T) {
	t.Setenv("LINKFENCE_HISTORY_SIZE", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for zero LINKFENCE_HISTORY_SIZE, got nil")
	}
}

func TestLoad_InvalidQueueSize(t *testing.T) {
	t.Setenv("LINKFENCE_QUEUE_SIZE", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for zero LINKFENCE_QUEUE_SIZE, got nil")
	}
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	t.Setenv("LINKFENCE_POLL_INTERVAL", "0s")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for zero LINKFENCE_POLL_INTERVAL, got nil")
	}
}

func TestLoad_PollIntervalNotADuration(t *testing.T) {
	t.Setenv("LINKFENCE_POLL_INTERVAL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for non-duration LINKFENCE_POLL_INTERVAL, got nil")
	}
}

func TestLoad_EmptyRecentFile(t *testing.T) {
	t.Setenv("LINKFENCE_RECENT_FILE", "") // required

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for empty LINKFENCE_RECENT_FILE, got nil")
	}
}

func TestLoad_InvalidRulesFileExtension(t *testing.T) {
	t.Setenv("LINKFENCE_RULES_FILE", "/etc/linkfence/rules.ini")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unsupported rules file extension, got nil")
	}
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestValidRuleFile(t *testing.T) {
	type testCase struct {
		input    string
		expected bool
	}

	cases := []testCase{
		{"/etc/linkfence/rules.json", true},
		{"/etc/linkfence/rules.yaml", true},
		{"rules.yml", true},
		{"rules.toml", true},
		{"/etc/linkfence/RULES.JSON", true},
		{"/etc/linkfence/rules.ini", false},
		{"/etc/linkfence/rules", false},
		{"", false},
	}

	validate := validator.New()
	_ = validate.RegisterValidation("rule_file", validRuleFile)

	for _, tc := range cases {
		// Use a struct to test the validator
		type S struct {
			Path string `validate:"rule_file"`
		}
		s := S{Path: tc.input}
		err := validate.Struct(s)
		if tc.expected && err != nil {
			t.Errorf("validRuleFile(%q) = false, want true", tc.input)
		}
		if !tc.expected && err == nil {
			t.Errorf("validRuleFile(%q) = true, want false", tc.input)
		}
	}
}

func TestDefaultLoader_LoadsDefaults(t *testing.T) {
	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		t.Fatalf("defaultLoader returned error: %v", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	// Compare a subset of defaults
	if cfg.Env != DEFAULT_APP_CONFIG.Env {
		t.Errorf("expected Env=%q, got %q", DEFAULT_APP_CONFIG.Env, cfg.Env)
	}
	if cfg.LogLevel != DEFAULT_APP_CONFIG.LogLevel {
		t.Errorf("expected LogLevel=%q, got %q", DEFAULT_APP_CONFIG.LogLevel, cfg.LogLevel)
	}
	if cfg.PollInterval != DEFAULT_APP_CONFIG.PollInterval {
		t.Errorf("expected PollInterval=%v, got %v", DEFAULT_APP_CONFIG.PollInterval, cfg.PollInterval)
	}
	if cfg.HistorySize != DEFAULT_APP_CONFIG.HistorySize {
		t.Errorf("expected HistorySize=%d, got %d", DEFAULT_APP_CONFIG.HistorySize, cfg.HistorySize)
	}
	if cfg.BlockThreshold != DEFAULT_APP_CONFIG.BlockThreshold {
		t.Errorf("expected BlockThreshold=%v, got %v", DEFAULT_APP_CONFIG.BlockThreshold, cfg.BlockThreshold)
	}
}
