package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/cheese-checkers-bot/internal/domain"
	"github.com/park285/cheese-checkers-bot/internal/draughts"
)

func result(white, black, winner string, moves int, d time.Duration) draughts.GameResult {
	return draughts.GameResult{
		WhiteName:      white,
		BlackName:      black,
		WinnerName:     winner,
		TotalMoves:     moves,
		DurationMillis: d.Milliseconds(),
		FinishedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestLoginPlayer(t *testing.T) {
	s := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := s.LoginPlayer(ctx, "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	p, err := s.LoginPlayer(ctx, "  alice ")
	if err != nil {
		t.Fatalf("LoginPlayer: %v", err)
	}
	if p.Name != "alice" || p.GamesPlayed != 0 {
		t.Fatalf("unexpected player %+v", p)
	}
	again, err := s.LoginPlayer(ctx, "alice")
	if err != nil || again.Name != "alice" {
		t.Fatalf("second login: %+v %v", again, err)
	}
	if missing, err := s.repo.GetPlayer(ctx, "bob"); err != nil || missing != nil {
		t.Fatalf("unknown player should be nil, got %+v %v", missing, err)
	}
}

func TestRecordResultUpdatesKnownPlayers(t *testing.T) {
	s := NewService(NewMemoryRepository())
	ctx := context.Background()
	if _, err := s.LoginPlayer(ctx, "alice"); err != nil {
		t.Fatalf("LoginPlayer: %v", err)
	}

	var sink draughts.ResultSink = s
	if err := sink.RecordResult(ctx, result("alice", "ghost", "alice", 12, 65*time.Second)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	alice, _ := s.repo.GetPlayer(ctx, "alice")
	if alice.GamesPlayed != 1 || alice.GamesWon != 1 || alice.TotalMoves != 12 || alice.TotalTime != 65*time.Second {
		t.Fatalf("alice stats = %+v", alice)
	}
	if ghost, _ := s.repo.GetPlayer(ctx, "ghost"); ghost != nil {
		t.Fatalf("result must not create players, got %+v", ghost)
	}
	games, err := s.RecentGames(ctx, "ghost", 0)
	if err != nil || len(games) != 1 {
		t.Fatalf("RecentGames(ghost) = %v, %v", games, err)
	}
}

func TestRecordGameIgnoresDuplicates(t *testing.T) {
	s := NewService(NewMemoryRepository())
	ctx := context.Background()
	s.LoginPlayer(ctx, "alice")
	r := result("alice", "bob", "bob", 8, time.Minute)
	if err := s.RecordGame(ctx, "g-1", r); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	if err := s.RecordGame(ctx, "g-1", r); err != nil {
		t.Fatalf("duplicate should be swallowed, got %v", err)
	}
	alice, _ := s.repo.GetPlayer(ctx, "alice")
	if alice.GamesPlayed != 1 {
		t.Fatalf("duplicate counted twice: %+v", alice)
	}
}

func TestRankings(t *testing.T) {
	s := NewService(NewMemoryRepository(), WithDefaultLimit(2))
	ctx := context.Background()
	for _, n := range []string{"alice", "bob", "carol"} {
		s.LoginPlayer(ctx, n)
	}
	s.RecordResult(ctx, result("alice", "bob", "alice", 20, 3*time.Minute))
	s.RecordResult(ctx, result("carol", "bob", "bob", 15, 30*time.Second))
	s.RecordResult(ctx, result("alice", "carol", "carol", 25, 2*time.Minute))

	top, err := s.TopPlayers(ctx, 0)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	// every player is 1 of 2; ties fall back to wins then name
	if len(top) != 2 || top[0].Name != "alice" || top[1].Name != "bob" {
		t.Fatalf("top players = %v", names(top))
	}

	fastest, err := s.FastestGames(ctx, 3)
	if err != nil {
		t.Fatalf("FastestGames: %v", err)
	}
	if len(fastest) != 3 || fastest[0].Duration != 30*time.Second || fastest[2].Duration != 3*time.Minute {
		t.Fatalf("fastest order wrong: %+v", fastest)
	}
}

func names(ps []*domain.PlayerStats) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}
