package checkersbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/config"
	"github.com/park285/cheese-checkers-bot/internal/lobby"
	"github.com/park285/cheese-checkers-bot/internal/msgcat"
	"github.com/park285/cheese-checkers-bot/internal/pvpdraughts"
	"github.com/park285/cheese-checkers-bot/internal/service/records"
	"github.com/park285/cheese-checkers-bot/internal/service/render"
)

// Deps are the long-lived services the bot runs on.
type Deps struct {
	Games   *pvpdraughts.Manager
	Lobby   *lobby.Manager
	Records *records.Service
	Catalog *msgcat.Catalog

	db *sql.DB
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	repo, db, err := NewRecordsRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	recs := records.NewService(repo, records.WithLogger(logger), records.WithDefaultLimit(cfg.RankingLimit))

	ttl := time.Duration(cfg.GameTTLSec) * time.Second
	games, err := pvpdraughts.NewManager(cfg.RedisURL,
		pvpdraughts.WithTTL(ttl),
		pvpdraughts.WithMaxActiveGames(cfg.MaxConcurrentGames),
		pvpdraughts.WithRenderer(render.NewPNGRenderer()),
		pvpdraughts.WithLogger(logger),
	)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("init games: %w", err)
	}
	games.AttachRecorder(recs)

	lob := lobby.NewManager(games.Client(), games, lobby.WithTTL(ttl), lobby.WithLogger(logger))

	logger.Info("checkers_deps_ready",
		zap.String("results_backend", string(cfg.ResultsBackend)),
		zap.Int("max_games", cfg.MaxConcurrentGames),
		zap.Duration("game_ttl", ttl),
	)
	return &Deps{Games: games, Lobby: lob, Records: recs, Catalog: cat, db: db}, nil
}

// NewRecordsRepository opens the configured result store. The returned DB is
// nil unless the postgres backend is selected.
func NewRecordsRepository(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (records.Repository, *sql.DB, error) {
	switch cfg.ResultsBackend {
	case config.BackendPostgres:
		db, err := records.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := records.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return records.NewRepository(db), db, nil
	case config.BackendCSV:
		repo, err := records.NewCSVRepository(cfg.ResultsDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv results: %w", err)
		}
		return repo, nil, nil
	case config.BackendMemory:
		return records.NewMemoryRepository(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown results backend %q", cfg.ResultsBackend)
}

func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Games != nil {
		errs = append(errs, d.Games.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	return errors.Join(errs...)
}
