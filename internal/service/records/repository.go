package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/park285/cheese-checkers-bot/internal/domain"
)

var (
	ErrEmptyName       = errors.New("player name must not be empty")
	ErrDuplicateResult = errors.New("game result already recorded")
)

// Repository stores finished games and per-player totals. AddResult updates
// the stats of players that already exist; unknown names are recorded in the
// result only.
type Repository interface {
	EnsurePlayer(ctx context.Context, name string) (*domain.PlayerStats, error)
	GetPlayer(ctx context.Context, name string) (*domain.PlayerStats, error)
	AddResult(ctx context.Context, rec *domain.GameRecord) error
	TopPlayers(ctx context.Context, limit int) ([]*domain.PlayerStats, error)
	FastestGames(ctx context.Context, limit int) ([]*domain.GameRecord, error)
	RecentGames(ctx context.Context, name string, limit int) ([]*domain.GameRecord, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS draughts_players (
	name          TEXT PRIMARY KEY,
	games_played  INTEGER NOT NULL DEFAULT 0,
	games_won     INTEGER NOT NULL DEFAULT 0,
	total_moves   INTEGER NOT NULL DEFAULT 0,
	total_time_ms BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS draughts_results (
	id          BIGSERIAL PRIMARY KEY,
	game_id     TEXT UNIQUE,
	white_name  TEXT NOT NULL,
	black_name  TEXT NOT NULL,
	winner_name TEXT NOT NULL,
	total_moves INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	resigned    BOOLEAN NOT NULL DEFAULT FALSE,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS draughts_results_duration_idx ON draughts_results (duration_ms);
CREATE INDEX IF NOT EXISTS draughts_results_white_idx ON draughts_results (white_name, finished_at DESC);
CREATE INDEX IF NOT EXISTS draughts_results_black_idx ON draughts_results (black_name, finished_at DESC);`

// OpenPostgres opens and pings a pooled connection.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables on first start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure draughts schema: %w", err)
	}
	return nil
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) EnsurePlayer(ctx context.Context, name string) (*domain.PlayerStats, error) {
	const query = `
		INSERT INTO draughts_players (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return nil, fmt.Errorf("insert draughts player: %w", err)
	}
	p, err := r.GetPlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("player %q vanished after insert", name)
	}
	return p, nil
}

func (r *repository) GetPlayer(ctx context.Context, name string) (*domain.PlayerStats, error) {
	const query = `
		SELECT name, games_played, games_won, total_moves, total_time_ms, created_at, updated_at
		FROM draughts_players
		WHERE name = $1`
	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select draughts player: %w", err)
	}
	return p, nil
}

func (r *repository) AddResult(ctx context.Context, rec *domain.GameRecord) error {
	if rec == nil {
		return fmt.Errorf("nil game record")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
		INSERT INTO draughts_results (
			game_id,
			white_name,
			black_name,
			winner_name,
			total_moves,
			duration_ms,
			resigned,
			finished_at
		)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = tx.QueryRowContext(ctx, insert,
		rec.GameID,
		rec.WhiteName,
		rec.BlackName,
		rec.WinnerName,
		rec.TotalMoves,
		rec.Duration.Milliseconds(),
		rec.Resigned,
		rec.FinishedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return ErrDuplicateResult
	}
	if err != nil {
		return fmt.Errorf("insert draughts result: %w", err)
	}

	const update = `
		UPDATE draughts_players
		SET games_played = games_played + 1,
			games_won = games_won + CASE WHEN name = $2 THEN 1 ELSE 0 END,
			total_moves = total_moves + $3,
			total_time_ms = total_time_ms + $4,
			updated_at = NOW()
		WHERE name = ANY($1)`
	names := uniqueNames(rec.WhiteName, rec.BlackName)
	if _, err := tx.ExecContext(ctx, update, pq.Array(names), rec.WinnerName, rec.TotalMoves, rec.Duration.Milliseconds()); err != nil {
		return fmt.Errorf("update draughts players: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result tx: %w", err)
	}
	rec.ID = id.Int64
	return nil
}

func (r *repository) TopPlayers(ctx context.Context, limit int) ([]*domain.PlayerStats, error) {
	const query = `
		SELECT name, games_played, games_won, total_moves, total_time_ms, created_at, updated_at
		FROM draughts_players
		ORDER BY
			CASE WHEN games_played = 0 THEN 0 ELSE games_won::float8 / games_played END DESC,
			games_won DESC,
			name ASC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select top players: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.PlayerStats, 0, limit)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) FastestGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	const query = `
		SELECT id, COALESCE(game_id, ''), white_name, black_name, winner_name, total_moves, duration_ms, resigned, finished_at
		FROM draughts_results
		ORDER BY duration_ms ASC, id ASC
		LIMIT $1`
	return r.queryResults(ctx, query, limit)
}

func (r *repository) RecentGames(ctx context.Context, name string, limit int) ([]*domain.GameRecord, error) {
	const query = `
		SELECT id, COALESCE(game_id, ''), white_name, black_name, winner_name, total_moves, duration_ms, resigned, finished_at
		FROM draughts_results
		WHERE white_name = $2 OR black_name = $2
		ORDER BY finished_at DESC, id DESC
		LIMIT $1`
	return r.queryResults(ctx, query, limit, name)
}

func (r *repository) queryResults(ctx context.Context, query string, limit int, args ...any) ([]*domain.GameRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, append([]any{limit}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("select draughts results: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		var (
			rec        domain.GameRecord
			durationMS int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.GameID,
			&rec.WhiteName,
			&rec.BlackName,
			&rec.WinnerName,
			&rec.TotalMoves,
			&durationMS,
			&rec.Resigned,
			&rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan draughts result: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*domain.PlayerStats, error) {
	var (
		p       domain.PlayerStats
		totalMS int64
	)
	if err := row.Scan(&p.Name, &p.GamesPlayed, &p.GamesWon, &p.TotalMoves, &totalMS, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.TotalTime = time.Duration(totalMS) * time.Millisecond
	return &p, nil
}

func uniqueNames(white, black string) []string {
	if white == black {
		return []string{white}
	}
	return []string{white, black}
}
