package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", "")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MEDIA_PROVIDER", "ytdlp")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CommandPrefix != "/" {
		t.Fatalf("expected default prefix, got %q", cfg.CommandPrefix)
	}
	if cfg.ReconnectBaseDelay != 3*time.Second || cfg.ReconnectMaxDelay != time.Minute {
		t.Fatalf("unexpected reconnect delays: %s %s", cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay)
	}
	if cfg.YtDlpPath != "yt-dlp" {
		t.Fatalf("unexpected yt-dlp path %q", cfg.YtDlpPath)
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("COMMAND_PREFIX=!\nSTATS_TIMEZONE=Asia/Tokyo\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("STATS_TIMEZONE", "UTC")
	// Registered for restore, then unset so the env file can fill it.
	t.Setenv("COMMAND_PREFIX", "")
	os.Unsetenv("COMMAND_PREFIX")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CommandPrefix != "!" {
		t.Fatalf("expected prefix from env file, got %q", cfg.CommandPrefix)
	}
	if cfg.StatsTimezone != "UTC" {
		t.Fatalf("expected environment to win, got %q", cfg.StatsTimezone)
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing ENV_FILE")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("COMMAND_PREFIX", "!!")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}
