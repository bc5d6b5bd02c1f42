package draughtspresenter

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/msgcat"
	"github.com/park285/cheese-checkers-bot/internal/util"
	"github.com/park285/cheese-checkers-bot/pkg/draughtsdto"
)

// PrefixProvider exposes the command prefix shown in help texts.
type PrefixProvider interface {
	Prefix() string
}

// Formatter turns DTOs into chat text using the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	prefix PrefixProvider
	logger *zap.Logger
}

func NewFormatter(cat *msgcat.Catalog, prefix PrefixProvider, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{cat: cat, prefix: prefix, logger: logger}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefix == nil {
		return ""
	}
	return strings.TrimSpace(f.prefix.Prefix())
}

// Text renders key. A broken template is logged and yields the generic
// internal error text.
func (f *Formatter) Text(key string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.Prefix()
	}
	out, err := f.cat.Render(key, data)
	if err == nil {
		return out
	}
	f.logger.Error("msgcat_render_error", zap.String("key", key), zap.Error(err))
	if key != "error.internal" {
		if fallback, ferr := f.cat.Render("error.internal", nil); ferr == nil {
			return fallback
		}
	}
	return key
}

// Resumed announces a game brought back from a save, followed by whose turn it is.
func (f *Formatter) Resumed(s *draughtsdto.GameState) string {
	return f.Text("game.resumed", map[string]any{"White": s.WhiteName, "Black": s.BlackName}) + "\n" + f.turn(s)
}

// Error renders a domain error for the user.
func (f *Formatter) Error(e draughtsdto.DomainError) string {
	return f.Text(e.Code, e.Data)
}

func (f *Formatter) Help() string { return f.Text("help.usage", nil) }

func (f *Formatter) Started(s *draughtsdto.GameState) string {
	return f.Text("game.started", map[string]any{"White": s.WhiteName, "Black": s.BlackName})
}

func (f *Formatter) Status(s *draughtsdto.GameState) string {
	if s.Ended {
		return f.Text("game.ended", map[string]any{"Line": s.ResultLine})
	}
	lines := []string{
		f.Text("game.status", map[string]any{
			"White":   s.WhiteName,
			"Black":   s.BlackName,
			"Moves":   s.MoveCount,
			"Elapsed": Clock(s.Elapsed),
		}),
		f.turn(s),
	}
	return strings.Join(lines, "\n")
}

// Play describes the signals produced by one input, in order.
func (f *Formatter) Play(out *draughtsdto.PlayOutcome) string {
	if out == nil || out.State == nil {
		return ""
	}
	s := out.State
	var lines []string
	for _, sig := range out.Signals {
		switch sig {
		case "selected":
			lines = append(lines, f.Text("game.selected", map[string]any{"Name": out.ActorName, "Square": out.Square}))
		case "must_capture":
			lines = append(lines, f.Text("game.must_capture", nil))
		case "must_finish_jump":
			lines = append(lines, f.Text("game.must_finish_jump", map[string]any{"Name": out.ActorName}))
		case "illegal_move":
			lines = append(lines, f.Text("game.illegal_move", nil))
		case "turn_advanced":
			if !s.Ended {
				lines = append(lines, f.turn(s))
			}
		case "game_ended":
			lines = append(lines, f.ended(out))
		}
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) ended(out *draughtsdto.PlayOutcome) string {
	s := out.State
	if s.Resigned {
		loser := s.WhiteName
		if s.WinnerName == s.WhiteName {
			loser = s.BlackName
		}
		return f.Text("game.resigned", map[string]any{"Loser": loser, "Winner": s.WinnerName}) + "\n" + s.ResultLine
	}
	return f.Text("game.ended", map[string]any{"Line": s.ResultLine})
}

func (f *Formatter) turn(s *draughtsdto.GameState) string {
	return f.Text("game.turn", map[string]any{"Name": s.SideToMoveName, "Color": s.SideToMove})
}

func (f *Formatter) LobbyMade(code string) string {
	return f.Text("lobby.made", map[string]any{"Code": code})
}

func (f *Formatter) LobbyStarted(code string, s *draughtsdto.GameState) string {
	return f.Text("lobby.started", map[string]any{"Code": code, "White": s.WhiteName, "Black": s.BlackName})
}

func (f *Formatter) LobbyCancelled(code string) string {
	return f.Text("lobby.cancelled", map[string]any{"Code": code})
}

func (f *Formatter) LobbyList(entries []draughtsdto.LobbyEntry) string {
	if len(entries) == 0 {
		return f.Text("lobby.empty", nil)
	}
	lines := []string{f.Text("lobby.list_header", nil)}
	for _, e := range entries {
		lines = append(lines, f.Text("lobby.list_item", map[string]any{"Code": e.Code, "Creator": e.CreatorName}))
	}
	return strings.Join(lines, "\n")
}

// Ranking lists players by win rate. Long lists are folded.
func (f *Formatter) Ranking(players []draughtsdto.PlayerStats) string {
	if len(players) == 0 {
		return f.Text("rank.empty", nil)
	}
	header := f.Text("rank.header", nil)
	lines := make([]string, 0, len(players))
	for i, p := range players {
		lines = append(lines, f.Text("rank.item", map[string]any{
			"Pos":      i + 1,
			"Name":     p.Name,
			"Won":      p.GamesWon,
			"Played":   p.GamesPlayed,
			"Rate":     fmt.Sprintf("%.1f", p.WinRate),
			"AvgMoves": fmt.Sprintf("%.1f", p.AverageMoves),
		}))
	}
	return util.FoldLongText(header, strings.Join(lines, "\n"))
}

func (f *Formatter) Fastest(games []draughtsdto.GameRecord) string {
	if len(games) == 0 {
		return f.Text("fastest.empty", nil)
	}
	header := f.Text("fastest.header", nil)
	lines := make([]string, 0, len(games))
	for i, g := range games {
		lines = append(lines, f.Text("fastest.item", map[string]any{"Pos": i + 1, "Line": ResultLine(g)}))
	}
	return util.FoldLongText(header, strings.Join(lines, "\n"))
}

// Me renders a player's stats followed by their most recent games.
func (f *Formatter) Me(p draughtsdto.PlayerStats, recent []draughtsdto.GameRecord) string {
	stats := f.Text("me.stats", map[string]any{
		"Name":     p.Name,
		"Played":   p.GamesPlayed,
		"Won":      p.GamesWon,
		"Rate":     fmt.Sprintf("%.1f", p.WinRate),
		"AvgMoves": fmt.Sprintf("%.1f", p.AverageMoves),
		"AvgTime":  p.AverageTimeSeconds,
	})
	if len(recent) == 0 {
		return stats
	}
	lines := []string{stats, f.Text("me.recent", nil)}
	for _, g := range recent {
		lines = append(lines, ResultLine(g))
	}
	return strings.Join(lines, "\n")
}

// ResultLine matches the line printed when a game ends.
func ResultLine(g draughtsdto.GameRecord) string {
	return fmt.Sprintf("%s vs %s | winner: %s | moves: %d | time: %s",
		g.WhiteName, g.BlackName, g.WinnerName, g.TotalMoves, Clock(g.Duration))
}

// Clock formats d as m:ss, truncated to whole seconds.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
