package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/e3wm/e3wm-api/internal/source"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"XDG_CONFIG_HOME",
		"E3WM_SYSTEM_DIR",
		"E3WM_LOG_LEVEL",
		"E3WM_LOG_ENCODING",
		"E3WM_API_PORT",
		"E3WM_API_RATE_LIMIT_RPS",
		"E3WM_API_RATE_LIMIT_BURST",
		"E3WM_WATCH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.SystemDir != source.DefaultSystemDir {
		t.Fatalf("expected default system dir, got %s", cfg.SystemDir)
	}
	if cfg.LogLevel != "info" || cfg.LogEncoding != "console" {
		t.Fatalf("unexpected logging defaults: %s/%s", cfg.LogLevel, cfg.LogEncoding)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.Watch {
		t.Fatalf("expected watch to be disabled by default")
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("E3WM_SYSTEM_DIR", "/opt/e3wm")
	t.Setenv("E3WM_LOG_LEVEL", "DEBUG")
	t.Setenv("E3WM_API_PORT", "9000")
	t.Setenv("E3WM_API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("E3WM_API_RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("E3WM_WATCH", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ConfigHome != "/tmp/xdg" || cfg.SystemDir != "/opt/e3wm" {
		t.Fatalf("unexpected directories: %s, %s", cfg.ConfigHome, cfg.SystemDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lowercased log level, got %s", cfg.LogLevel)
	}
	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("invalid burst should be ignored, got %d", cfg.RateLimitBurst)
	}
	if !cfg.Watch {
		t.Fatalf("expected watch to be enabled")
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("E3WM_API_PORT", "9000")
	t.Setenv("E3WM_SYSTEM_DIR", "/from/env")

	settingsFile := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
port: "9100"
system_dir: /from/yaml
log_encoding: json
watch_debounce: 250ms
enable_request_logging: false
rate_limit:
  rps: 0
  burst: 0
`
	if err := os.WriteFile(settingsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	port := "9200"
	cfg, err := Load(&CLIOverrides{SettingsFile: settingsFile, Port: &port})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.SystemDir != "/from/yaml" {
		t.Fatalf("expected YAML system dir to win over env, got %s", cfg.SystemDir)
	}
	if cfg.LogEncoding != "json" {
		t.Fatalf("expected json encoding, got %s", cfg.LogEncoding)
	}
	if cfg.WatchDebounce != 250*time.Millisecond {
		t.Fatalf("expected 250ms debounce, got %s", cfg.WatchDebounce)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging to be disabled")
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != 0 {
		t.Fatalf("expected rate limit disabled, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearEnv(t)

	t.Run("unknown log level", func(t *testing.T) {
		level := "verbose"
		if _, err := Load(&CLIOverrides{LogLevel: &level}); err == nil {
			t.Fatalf("expected error for unknown log level")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		settingsFile := filepath.Join(t.TempDir(), "settings.yaml")
		if err := os.WriteFile(settingsFile, []byte("write_timeout: soon\n"), 0o644); err != nil {
			t.Fatalf("write settings: %v", err)
		}
		if _, err := Load(&CLIOverrides{SettingsFile: settingsFile}); err == nil {
			t.Fatalf("expected error for invalid duration")
		}
	})

	t.Run("missing settings file", func(t *testing.T) {
		if _, err := Load(&CLIOverrides{SettingsFile: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
			t.Fatalf("expected error for missing settings file")
		}
	})

	t.Run("negative burst from YAML", func(t *testing.T) {
		settingsFile := filepath.Join(t.TempDir(), "settings.yaml")
		if err := os.WriteFile(settingsFile, []byte("rate_limit:\n  burst: -3\n"), 0o644); err != nil {
			t.Fatalf("write settings: %v", err)
		}
		if _, err := Load(&CLIOverrides{SettingsFile: settingsFile}); err == nil {
			t.Fatalf("expected error for negative burst")
		}
	})
}

func TestConfigSource(t *testing.T) {
	clearEnv(t)

	home := "/tmp/home-config"
	cfg, err := Load(&CLIOverrides{ConfigHome: &home})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	src, err := cfg.Source()
	if err != nil {
		t.Fatalf("Source returned error: %v", err)
	}
	if want := filepath.Join(home, source.AppDir); src.UserDir != want {
		t.Fatalf("expected user dir %s, got %s", want, src.UserDir)
	}
	if src.SystemDir != source.DefaultSystemDir {
		t.Fatalf("expected default system dir, got %s", src.SystemDir)
	}
}
