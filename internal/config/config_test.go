package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("IRIS_BASE_URL", "http://iris.local")
	t.Setenv("IRIS_WS_URL", "ws://iris.local/ws")
	t.Setenv("BOT_PREFIX", "!")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RESULTS_BACKEND", "")
	t.Setenv("EGRESS_MODE", "")
	t.Setenv("ALLOWED_ROOMS", "")
	t.Setenv("RESULTS_DIR", "")
	t.Setenv("GAME_TTL_SEC", "")
	t.Setenv("RANKING_LIMIT", "")
	t.Setenv("MAX_CONCURRENT_GAMES", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResultsBackend != BackendCSV || cfg.ResultsDir != "data" {
		t.Fatalf("unexpected results defaults: %s %q", cfg.ResultsBackend, cfg.ResultsDir)
	}
	if cfg.GameTTLSec != 86400 || cfg.RankingLimit != 10 || cfg.MaxConcurrentGames != 200 || cfg.EgressMode != "auto" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.RoomAllowed("anything") {
		t.Fatalf("empty allow list should admit all rooms")
	}
}

func TestLoadDerivesPostgresBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/checkers?sslmode=disable")
	t.Setenv("ALLOWED_ROOMS", " r1, ,r2 ")
	t.Setenv("RANKING_LIMIT", "-3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResultsBackend != BackendPostgres {
		t.Fatalf("backend = %s", cfg.ResultsBackend)
	}
	if len(cfg.AllowedRooms) != 2 || !cfg.RoomAllowed("r2") || cfg.RoomAllowed("r3") {
		t.Fatalf("allowed rooms = %v", cfg.AllowedRooms)
	}
	if cfg.RankingLimit != 10 {
		t.Fatalf("invalid ranking limit should keep default, got %d", cfg.RankingLimit)
	}
}

func TestLoadRejectsMissingOrInvalid(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_PREFIX", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected BOT_PREFIX error")
	}

	setRequired(t)
	t.Setenv("RESULTS_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("expected DATABASE_URL error for postgres backend")
	}

	setRequired(t)
	t.Setenv("EGRESS_MODE", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected EGRESS_MODE error")
	}
}
