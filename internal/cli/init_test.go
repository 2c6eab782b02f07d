package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	if logger == nil {
		t.Fatal("SetupLogger returned nil")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}
	if slog.Default() != logger.Logger {
		t.Error("expected logger to be installed as default")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINEXPRESS_TEST_VALUE=from-file\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FINEXPRESS_TEST_VALUE", "")
	os.Unsetenv("FINEXPRESS_TEST_VALUE")

	LoadEnvFile(path)

	if got := os.Getenv("FINEXPRESS_TEST_VALUE"); got != "from-file" {
		t.Fatalf("FINEXPRESS_TEST_VALUE = %q, want from-file", got)
	}
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}
