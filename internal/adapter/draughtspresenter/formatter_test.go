package draughtspresenter

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-checkers-bot/internal/msgcat"
	"github.com/park285/cheese-checkers-bot/pkg/draughtsdto"
)

type staticPrefix string

func (s staticPrefix) Prefix() string { return string(s) }

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return NewFormatter(cat, staticPrefix("!"), nil)
}

func TestPlayFollowsSignalOrder(t *testing.T) {
	f := newTestFormatter(t)
	state := &draughtsdto.GameState{WhiteName: "alice", BlackName: "bob", SideToMove: "white", SideToMoveName: "alice"}
	out := f.Play(&draughtsdto.PlayOutcome{State: state, ActorName: "bob", Square: "b6", Signals: []string{"selected"}})
	if !strings.Contains(out, "bob") || !strings.Contains(out, "b6") {
		t.Fatalf("selected text: %q", out)
	}
	out = f.Play(&draughtsdto.PlayOutcome{State: state, ActorName: "bob", Signals: []string{"turn_advanced"}})
	if !strings.Contains(out, "alice (white) to move") {
		t.Fatalf("turn text: %q", out)
	}
	if out := f.Play(&draughtsdto.PlayOutcome{State: state, Signals: []string{"illegal_move"}}); out != "That move is not allowed." {
		t.Fatalf("illegal text: %q", out)
	}
}

func TestPlayEndedAndResigned(t *testing.T) {
	f := newTestFormatter(t)
	line := "alice vs bob | winner: bob | moves: 12 | time: 1:30"
	ended := &draughtsdto.GameState{WhiteName: "alice", BlackName: "bob", Ended: true, WinnerName: "bob", ResultLine: line}
	out := f.Play(&draughtsdto.PlayOutcome{State: ended, Signals: []string{"turn_advanced", "game_ended"}})
	if out != "Game over. "+line {
		t.Fatalf("ended text: %q", out)
	}
	ended.Resigned = true
	out = f.Play(&draughtsdto.PlayOutcome{State: ended, Signals: []string{"game_ended"}})
	if !strings.HasPrefix(out, "alice resigned. bob wins.") {
		t.Fatalf("resigned text: %q", out)
	}
}

func TestRankingAndFastest(t *testing.T) {
	f := newTestFormatter(t)
	if got := f.Ranking(nil); got != "No players yet." {
		t.Fatalf("empty ranking: %q", got)
	}
	out := f.Ranking([]draughtsdto.PlayerStats{{Name: "alice", GamesPlayed: 4, GamesWon: 3, WinRate: 75, AverageMoves: 20}})
	if !strings.HasPrefix(out, "Top players by win rate:") || !strings.Contains(out, "1. alice - 3/4 (75.0%), avg 20.0 moves") {
		t.Fatalf("ranking: %q", out)
	}
	fast := f.Fastest([]draughtsdto.GameRecord{{WhiteName: "a", BlackName: "b", WinnerName: "a", TotalMoves: 9, Duration: 65 * time.Second}})
	if !strings.Contains(fast, "1. a vs b | winner: a | moves: 9 | time: 1:05") {
		t.Fatalf("fastest: %q", fast)
	}
}

func TestMeAndHelp(t *testing.T) {
	f := newTestFormatter(t)
	stats := draughtsdto.PlayerStats{Name: "bob", GamesPlayed: 2, GamesWon: 1, WinRate: 50, AverageMoves: 10, AverageTimeSeconds: 42}
	out := f.Me(stats, nil)
	if out != "bob: 2 games, 1 won (50.0%), avg 10.0 moves, avg 42s" {
		t.Fatalf("me: %q", out)
	}
	out = f.Me(stats, []draughtsdto.GameRecord{{WhiteName: "bob", BlackName: "ann", WinnerName: "ann", TotalMoves: 4, Duration: 5 * time.Second}})
	if !strings.HasSuffix(out, "Recent games:\nbob vs ann | winner: ann | moves: 4 | time: 0:05") {
		t.Fatalf("me with recent: %q", out)
	}
	if !strings.Contains(f.Help(), "!checkers resign") {
		t.Fatalf("help missing prefix")
	}
	if got := f.Text("no.such.key", nil); got != "Something went wrong. Please try again." {
		t.Fatalf("fallback: %q", got)
	}
}

func TestClock(t *testing.T) {
	cases := map[time.Duration]string{0: "0:00", 59 * time.Second: "0:59", 61500 * time.Millisecond: "1:01", -time.Second: "0:00"}
	for d, want := range cases {
		if got := Clock(d); got != want {
			t.Fatalf("Clock(%v) = %q, want %q", d, got, want)
		}
	}
}
