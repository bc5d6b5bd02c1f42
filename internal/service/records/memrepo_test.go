package records

import (
	"context"
	"testing"
	"time"

	"github.com/park285/cheese-checkers-bot/internal/domain"
)

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p, err := repo.EnsurePlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("EnsurePlayer: %v", err)
	}
	p.GamesWon = 99
	if got, _ := repo.GetPlayer(ctx, "alice"); got == nil || got.GamesWon != 0 {
		t.Fatalf("stored player changed through EnsurePlayer result: %+v", got)
	}

	rec := &domain.GameRecord{GameID: "g-1", WhiteName: "alice", BlackName: "bob", WinnerName: "alice", TotalMoves: 7, Duration: time.Minute}
	if err := repo.AddResult(ctx, rec); err != nil {
		t.Fatalf("AddResult: %v", err)
	}
	rec.TotalMoves = 1000
	games, err := repo.FastestGames(ctx, 10)
	if err != nil || len(games) != 1 || games[0].TotalMoves != 7 {
		t.Fatalf("stored result changed through caller record: %+v %v", games, err)
	}
	games[0].WinnerName = "mallory"
	if again, _ := repo.RecentGames(ctx, "alice", 10); len(again) != 1 || again[0].WinnerName != "alice" {
		t.Fatalf("stored result changed through query result: %+v", again)
	}
	top, _ := repo.TopPlayers(ctx, 10)
	if len(top) != 1 {
		t.Fatalf("TopPlayers = %+v", top)
	}
	top[0].GamesPlayed = 50
	if got, _ := repo.GetPlayer(ctx, "alice"); got.GamesPlayed != 1 {
		t.Fatalf("stored player changed through TopPlayers result: %+v", got)
	}
}
