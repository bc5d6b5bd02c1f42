package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ResultsBackend selects where finished games and player stats are stored.
type ResultsBackend string

const (
	BackendPostgres ResultsBackend = "postgres"
	BackendCSV      ResultsBackend = "csv"
	BackendMemory   ResultsBackend = "memory"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string
	EgressMode  string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL    string
	DatabaseURL string

	ResultsBackend ResultsBackend
	ResultsDir     string

	AllowedRooms       []string
	MaxConcurrentGames int
	GameTTLSec         int
	RankingLimit       int

	MessagesDir string
	// SaveDir enables the save command when set.
	SaveDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:         "auto",
		ResultsDir:         "data",
		MaxConcurrentGames: 200,
		GameTTLSec:         86400,
		RankingLimit:       10,
	}

	cfg.IrisBaseURL = strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	cfg.IrisWSURL = strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))

	cfg.XUserID = strings.TrimSpace(os.Getenv("X_USER_ID"))
	cfg.XUserEmail = strings.TrimSpace(os.Getenv("X_USER_EMAIL"))
	cfg.XSessionID = strings.TrimSpace(os.Getenv("X_SESSION_ID"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("RESULTS_DIR")); v != "" {
		cfg.ResultsDir = v
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.SaveDir = strings.TrimSpace(os.Getenv("SAVE_DIR"))
	cfg.AllowedRooms = splitList(os.Getenv("ALLOWED_ROOMS"))

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("EGRESS_MODE"))); v != "" {
		switch v {
		case "http", "ws", "auto":
			cfg.EgressMode = v
		default:
			return nil, errors.New("EGRESS_MODE must be http, ws or auto")
		}
	}

	cfg.MaxConcurrentGames = positiveInt("MAX_CONCURRENT_GAMES", cfg.MaxConcurrentGames)
	cfg.GameTTLSec = positiveInt("GAME_TTL_SEC", cfg.GameTTLSec)
	cfg.RankingLimit = positiveInt("RANKING_LIMIT", cfg.RankingLimit)

	switch v := ResultsBackend(strings.ToLower(strings.TrimSpace(os.Getenv("RESULTS_BACKEND")))); v {
	case "":
		// postgres when a database is configured, CSV files otherwise
		if cfg.DatabaseURL != "" {
			cfg.ResultsBackend = BackendPostgres
		} else {
			cfg.ResultsBackend = BackendCSV
		}
	case BackendPostgres, BackendCSV, BackendMemory:
		cfg.ResultsBackend = v
	default:
		return nil, errors.New("RESULTS_BACKEND must be postgres, csv or memory")
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.ResultsBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres results backend")
	}

	return cfg, nil
}

// RoomAllowed reports whether the bot should answer in room. An empty allow list admits every room.
func (c *AppConfig) RoomAllowed(room string) bool {
	if c == nil || len(c.AllowedRooms) == 0 {
		return true
	}
	room = strings.TrimSpace(room)
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}
