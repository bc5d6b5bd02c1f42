package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkers.log")
	logger, err := New(Options{Level: zapcore.InfoLevel, File: path, Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("draughts_game_end", zap.String("winner", "white"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"draughts_game_end"`) || !strings.Contains(out, `"winner":"white"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "weird")
	opts := OptionsFromEnv()
	if opts.Level != zapcore.DebugLevel || opts.File != "" || opts.Format != "legacy" {
		t.Fatalf("unexpected options %+v", opts)
	}

	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "")
	if got := OptionsFromEnv().File; got != filepath.Join("logs", "checkers.log") {
		t.Fatalf("default log file = %q", got)
	}
}
