package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/domain"
	"github.com/park285/cheese-checkers-bot/internal/draughts"
)

const defaultLimit = 10

// Service is the persistence collaborator for finished games. It satisfies
// draughts.ResultSink.
type Service struct {
	repo   Repository
	logger *zap.Logger
	limit  int
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultLimit sets the list size used when callers pass limit <= 0.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop(), limit: defaultLimit, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginPlayer returns the named player, creating an empty record on first use.
func (s *Service) LoginPlayer(ctx context.Context, name string) (*domain.PlayerStats, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return nil, ErrEmptyName
	}
	p, err := s.repo.EnsurePlayer(ctx, key)
	if err != nil {
		s.logger.Error("records_login_error", zap.String("player", key), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *Service) RecordResult(ctx context.Context, r draughts.GameResult) error {
	return s.RecordGame(ctx, "", r)
}

// RecordGame stores a result under gameID. A result already stored under the
// same id is ignored.
func (s *Service) RecordGame(ctx context.Context, gameID string, r draughts.GameResult) error {
	rec := &domain.GameRecord{
		GameID:     strings.TrimSpace(gameID),
		WhiteName:  r.WhiteName,
		BlackName:  r.BlackName,
		WinnerName: r.WinnerName,
		TotalMoves: r.TotalMoves,
		Duration:   r.Duration(),
		Resigned:   r.Resigned,
		FinishedAt: r.FinishedAt,
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = s.now()
	}
	err := s.repo.AddResult(ctx, rec)
	if errors.Is(err, ErrDuplicateResult) {
		s.logger.Info("records_result_duplicate", zap.String("game_id", rec.GameID))
		return nil
	}
	if err != nil {
		s.logger.Error("records_result_error", zap.String("game_id", rec.GameID), zap.Error(err))
		return err
	}
	s.logger.Info("records_result_saved",
		zap.String("game_id", rec.GameID),
		zap.String("white", rec.WhiteName),
		zap.String("black", rec.BlackName),
		zap.String("winner", rec.WinnerName),
		zap.Int("moves", rec.TotalMoves),
		zap.Int64("duration_ms", rec.Duration.Milliseconds()),
	)
	return nil
}

// TopPlayers orders by win rate, best first.
func (s *Service) TopPlayers(ctx context.Context, limit int) ([]*domain.PlayerStats, error) {
	return s.repo.TopPlayers(ctx, s.clamp(limit))
}

// FastestGames orders by duration, shortest first.
func (s *Service) FastestGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	return s.repo.FastestGames(ctx, s.clamp(limit))
}

func (s *Service) RecentGames(ctx context.Context, name string, limit int) ([]*domain.GameRecord, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return nil, ErrEmptyName
	}
	return s.repo.RecentGames(ctx, key, s.clamp(limit))
}

func (s *Service) clamp(limit int) int {
	if limit <= 0 {
		return s.limit
	}
	return limit
}
