package records

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-checkers-bot/internal/domain"
)

func TestCSVRepositoryPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewCSVRepository(dir, nil)
	if err != nil {
		t.Fatalf("NewCSVRepository: %v", err)
	}
	if _, err := repo.EnsurePlayer(ctx, "alice"); err != nil {
		t.Fatalf("EnsurePlayer: %v", err)
	}
	if _, err := repo.EnsurePlayer(ctx, "bob, jr"); err != nil {
		t.Fatalf("EnsurePlayer: %v", err)
	}
	rec := &domain.GameRecord{WhiteName: "alice", BlackName: "bob, jr", WinnerName: "alice", TotalMoves: 21, Duration: 95 * time.Second}
	if err := repo.AddResult(ctx, rec); err != nil {
		t.Fatalf("AddResult: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "players.csv"))
	if err != nil {
		t.Fatalf("read players.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "name,gamesPlayed,gamesWon,totalMoves,totalTime" {
		t.Fatalf("players header = %q", lines[0])
	}
	if lines[1] != "alice,1,1,21,95000" {
		t.Fatalf("alice row = %q", lines[1])
	}
	raw, _ = os.ReadFile(filepath.Join(dir, "results.csv"))
	if got := strings.TrimSpace(string(raw)); got != "white,black,winner,moves,duration\nalice,\"bob, jr\",alice,21,95000" {
		t.Fatalf("results.csv = %q", got)
	}

	reloaded, err := NewCSVRepository(dir, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	bob, err := reloaded.GetPlayer(ctx, "bob, jr")
	if err != nil || bob == nil {
		t.Fatalf("GetPlayer after reload: %+v %v", bob, err)
	}
	if bob.GamesPlayed != 1 || bob.GamesWon != 0 || bob.TotalTime != 95*time.Second {
		t.Fatalf("bob stats = %+v", bob)
	}
	games, err := reloaded.FastestGames(ctx, 5)
	if err != nil || len(games) != 1 || games[0].WinnerName != "alice" {
		t.Fatalf("FastestGames after reload = %+v %v", games, err)
	}
}

func TestCSVRepositorySkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	content := "name,gamesPlayed,gamesWon,totalMoves,totalTime\n" +
		"alice,2,1,30,60000\n" +
		"broken,x,1,2,3\n" +
		"short,1\n"
	if err := os.WriteFile(filepath.Join(dir, "players.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	repo, err := NewCSVRepository(dir, nil)
	if err != nil {
		t.Fatalf("NewCSVRepository: %v", err)
	}
	top, _ := repo.TopPlayers(context.Background(), 10)
	if len(top) != 1 || top[0].Name != "alice" || top[0].GamesPlayed != 2 {
		t.Fatalf("loaded players = %+v", top)
	}
}
